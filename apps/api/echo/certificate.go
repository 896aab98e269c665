package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core/certificate"
)

type certificateApi struct {
	deps ServerDeps
}

func registerCertificateAPI(g *echo.Group, sess echo.MiddlewareFunc, deps ServerDeps) {
	api := certificateApi{deps: deps}

	cg := g.Group("/certificates")

	// public verification by serial
	cg.GET("/verify/:serial", api.verify)

	ag := cg.Group("", sess)
	ag.GET("/mine", api.retrieveMine)
	ag.POST("", api.issue)
}

func (api *certificateApi) issue(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	cert, err := api.deps.CertificateSvc.Issue(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "issuing certificate")
	}
	return ctx.JSON(http.StatusCreated, cert)
}

func (api *certificateApi) retrieveMine(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	cert, err := api.deps.CertificateSvc.ForUser(ctx.Request().Context(), sess.UserID)
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	cert, err := api.deps.CertificateSvc.Verify(ctx.Request().Context(), ctx.Param("serial"))
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}
