package api

import (
	"errors"

	"CostCast/internal/domain/models"
	xhttp "CostCast/pkg/http"
)

// ToAppError maps pipeline failures onto transport errors.
func ToAppError(err error) *xhttp.AppError {
	var ee *models.EstimateError
	if !errors.As(err, &ee) {
		return xhttp.InternalError("Something went wrong").WithError(err)
	}

	var appErr *xhttp.AppError
	switch ee.Kind {
	case models.KindValidation:
		appErr = xhttp.BadRequestError("ERR_VALIDATION", ee.Error())
	case models.KindComputation:
		appErr = xhttp.BadRequestError("ERR_COMPUTATION", ee.Error())
	case models.KindOracle:
		appErr = xhttp.BadGatewayError("ERR_ORACLE", ee.Error())
	case models.KindUnavailable:
		appErr = xhttp.ServiceUnavailableError("ERR_UNAVAILABLE", ee.Error())
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
	return appErr.OnField(string(ee.Material)).WithError(err)
}
