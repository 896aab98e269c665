package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core/reading"
)

type readingApi struct {
	deps ServerDeps
}

func registerReadingAPI(g *echo.Group, sess echo.MiddlewareFunc, deps ServerDeps) {
	api := readingApi{deps: deps}

	rg := g.Group("/reading", sess)
	rg.GET("/sections", api.querySections)
	rg.GET("/progress", api.retrieveProgress)
	rg.POST("/progress", api.advance)
	rg.POST("/chapters/:idx/complete", api.completeChapter)
	rg.GET("/bookmarks", api.queryBookmarks)
	rg.POST("/bookmarks", api.createBookmark)
	rg.DELETE("/bookmarks/:id", api.destroyBookmark)
}

func (api *readingApi) querySections(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, reading.Sections)
}

func (api *readingApi) retrieveProgress(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	prog, err := api.deps.ReadingSvc.Get(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "getting reading progress")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *readingApi) advance(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data reading.AdvanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdvanceRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	prog, err := api.deps.ReadingSvc.Advance(ctx.Request().Context(), sess.UserID, data.SectionID, data.LocalPage)
	if err != nil {
		return errors.Wrap(err, "advancing reading progress")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *readingApi) completeChapter(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	idx, err := strconv.Atoi(ctx.Param("idx"))
	if err != nil {
		return errHttpNotFound
	}

	prog, err := api.deps.ReadingSvc.CompleteChapter(ctx.Request().Context(), sess.UserID, idx)
	if err != nil {
		return errors.Wrap(err, "completing chapter")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *readingApi) queryBookmarks(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	bookmarks, err := api.deps.ReadingSvc.Bookmarks(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "querying bookmarks")
	}
	if bookmarks == nil {
		bookmarks = []reading.Bookmark{}
	}
	return ctx.JSON(http.StatusOK, bookmarks)
}

func (api *readingApi) createBookmark(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data reading.NewBookmark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBookmark")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	bm, err := api.deps.ReadingSvc.AddBookmark(ctx.Request().Context(), sess.UserID, data.PageID)
	if err != nil {
		return errors.Wrap(err, "adding bookmark")
	}
	return ctx.JSON(http.StatusCreated, bm)
}

func (api *readingApi) destroyBookmark(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := api.deps.ReadingSvc.RemoveBookmark(ctx.Request().Context(), sess.UserID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing bookmark")
	}
	return ctx.NoContent(http.StatusNoContent)
}
