package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/weather"
)

// upstreamRetryAfter is sent with 429s passed through from the weather provider.
const upstreamRetryAfter = 60

// ProblemFor maps an error from the weather layer to a Problem.
//
//	Location           -> 400
//	API 404            -> 404
//	API 429            -> 429
//	API other, Network -> 503
//	Cache, unknown     -> 500
func ProblemFor(traceID string, err error) *models.Problem {
	var werr *weather.Error
	if !errors.As(err, &werr) {
		return models.NewInternalError(traceID, "an unexpected error occurred")
	}

	var p *models.Problem
	switch werr.Kind {
	case weather.KindLocation:
		p = models.NewBadRequest(traceID, werr.Message, nil)
	case weather.KindAPI:
		switch werr.Code {
		case http.StatusNotFound:
			p = models.NewNotFound(traceID, werr.Message)
		case http.StatusTooManyRequests:
			p = models.NewTooManyRequests(traceID, werr.Message)
		default:
			p = models.NewServiceUnavailable(traceID, werr.Message)
		}
	case weather.KindNetwork:
		p = models.NewServiceUnavailable(traceID, werr.Message)
	default:
		p = models.NewInternalError(traceID, werr.Message)
	}

	return p.WithKind(werr.Kind.String())
}

// WeatherError writes the Problem for an error from the weather layer.
func WeatherError(w http.ResponseWriter, r *http.Request, err error) {
	problem := ProblemFor(middleware.GetRequestID(r.Context()), err)
	if problem.Status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(upstreamRetryAfter))
	}
	Error(w, r, problem)
}
