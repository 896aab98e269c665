package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core/exercise"
)

type exerciseApi struct {
	deps ServerDeps
}

func registerExerciseAPI(g *echo.Group, sess echo.MiddlewareFunc, deps ServerDeps) {
	api := exerciseApi{deps: deps}

	eg := g.Group("/exercises", sess)
	eg.GET("", api.query)
	eg.POST("/complete", api.complete)
}

type CompletionResponse struct {
	NewlyRecorded bool `json:"newly_recorded"`
}

func (api *exerciseApi) complete(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data exercise.Completion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Completion")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	recorded, err := api.deps.ExerciseSvc.RecordCompletion(ctx.Request().Context(), sess.UserID, data)
	if err != nil {
		return errors.Wrap(err, "recording exercise completion")
	}
	return ctx.JSON(http.StatusOK, CompletionResponse{NewlyRecorded: recorded})
}

func (api *exerciseApi) query(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	progs, err := api.deps.ExerciseSvc.ForUser(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "querying exercise progress")
	}
	if progs == nil {
		progs = []exercise.Progress{}
	}
	return ctx.JSON(http.StatusOK, progs)
}
