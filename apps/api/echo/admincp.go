package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/admincp"
)

type adminCPApi struct {
	deps ServerDeps
}

func registerAdminCPAPI(g *echo.Group, jwt, sess echo.MiddlewareFunc, deps ServerDeps) {
	api := adminCPApi{deps: deps}

	// public storefront data
	g.GET("/settings", api.retrieveSettings)
	g.GET("/testimonials", api.queryApprovedTestimonials)

	// reader endpoints
	rg := g.Group("", sess)
	rg.POST("/codes/redeem", api.redeemCode)
	rg.POST("/testimonials", api.submitTestimonial)

	// admin endpoints
	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.POST("/codes", api.generateCodes)
	ag.GET("/codes", api.queryCodes)
	ag.GET("/testimonials", api.queryAllTestimonials)
	ag.POST("/testimonials/:id/approve", api.approveTestimonial)
	ag.DELETE("/testimonials/:id", api.destroyTestimonial)
	ag.PUT("/settings", api.updateSettings)
}

// Handlers

func (api *adminCPApi) redeemCode(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data admincp.RedeemCode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RedeemCode")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	vc, err := api.deps.AdminCPSvc.Redeem(ctx.Request().Context(), data.Code, sess.UserID)
	if err != nil {
		switch errors.Cause(err) {
		case admincp.ErrCodeNotFound, admincp.ErrCodeUsed:
			return core.NewValidationError(errors.Cause(err))
		}
		return errors.Wrap(err, "redeeming code")
	}
	return ctx.JSON(http.StatusOK, vc)
}

func (api *adminCPApi) generateCodes(ctx echo.Context) error {
	var data GenerateCodesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateCodesRequest")
	}

	codes, err := api.deps.AdminCPSvc.GenerateCodes(ctx.Request().Context(), data.Count)
	if err != nil {
		return errors.Wrap(err, "generating codes")
	}
	return ctx.JSON(http.StatusCreated, codes)
}

func (api *adminCPApi) queryCodes(ctx echo.Context) error {
	unusedOnly, _ := strconv.ParseBool(ctx.QueryParam("unused"))
	codes, err := api.deps.AdminCPSvc.Codes(ctx.Request().Context(), unusedOnly)
	if err != nil {
		return errors.Wrap(err, "querying codes")
	}
	if codes == nil {
		codes = []admincp.VerificationCode{}
	}
	return ctx.JSON(http.StatusOK, codes)
}

func (api *adminCPApi) submitTestimonial(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data admincp.NewTestimonial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTestimonial")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	tst, err := api.deps.AdminCPSvc.SubmitTestimonial(ctx.Request().Context(), sess.UserID, data)
	if err != nil {
		return errors.Wrap(err, "submitting testimonial")
	}
	return ctx.JSON(http.StatusCreated, tst)
}

func (api *adminCPApi) queryApprovedTestimonials(ctx echo.Context) error {
	return api.queryTestimonials(ctx, true)
}

func (api *adminCPApi) queryAllTestimonials(ctx echo.Context) error {
	return api.queryTestimonials(ctx, false)
}

func (api *adminCPApi) queryTestimonials(ctx echo.Context, approvedOnly bool) error {
	testimonials, err := api.deps.AdminCPSvc.Testimonials(ctx.Request().Context(), approvedOnly)
	if err != nil {
		return errors.Wrap(err, "querying testimonials")
	}
	if testimonials == nil {
		testimonials = []admincp.Testimonial{}
	}
	return ctx.JSON(http.StatusOK, testimonials)
}

func (api *adminCPApi) approveTestimonial(ctx echo.Context) error {
	tst, err := api.deps.AdminCPSvc.ApproveTestimonial(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == admincp.ErrTestimonialNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "approving testimonial")
	}
	return ctx.JSON(http.StatusOK, tst)
}

func (api *adminCPApi) destroyTestimonial(ctx echo.Context) error {
	if err := api.deps.AdminCPSvc.DeleteTestimonial(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == admincp.ErrTestimonialNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting testimonial")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminCPApi) retrieveSettings(ctx echo.Context) error {
	settings, err := api.deps.AdminCPSvc.Settings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting site settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *adminCPApi) updateSettings(ctx echo.Context) error {
	var data admincp.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	settings, err := api.deps.AdminCPSvc.UpdateSettings(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating site settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

type GenerateCodesRequest struct {
	Count int `json:"count"`
}
