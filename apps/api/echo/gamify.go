package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core/gamify"
)

type gamifyApi struct {
	deps ServerDeps
}

func registerGamifyAPI(g *echo.Group, sess echo.MiddlewareFunc, deps ServerDeps) {
	api := gamifyApi{deps: deps}

	gg := g.Group("/gamification", sess)
	gg.GET("/me", api.retrieveMine)
	gg.GET("/me/badges", api.queryMyBadges)
	gg.GET("/leaderboard", api.leaderboard)
	gg.GET("/badges", api.queryBadges)
}

func (api *gamifyApi) retrieveMine(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	agg, err := api.deps.GamifySvc.ForUser(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "getting gamification aggregate")
	}
	return ctx.JSON(http.StatusOK, agg)
}

func (api *gamifyApi) queryMyBadges(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	badges, err := api.deps.GamifySvc.UserBadges(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "querying user badges")
	}
	if badges == nil {
		badges = []gamify.UserBadge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *gamifyApi) leaderboard(ctx echo.Context) error {
	aggs, err := api.deps.GamifySvc.Leaderboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if aggs == nil {
		aggs = []gamify.Aggregate{}
	}
	return ctx.JSON(http.StatusOK, aggs)
}

func (api *gamifyApi) queryBadges(ctx echo.Context) error {
	badges, err := api.deps.GamifySvc.Badges(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	if badges == nil {
		badges = []gamify.Badge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}
