package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"communitybot/entity"
	"communitybot/lib/api/cont"
	"communitybot/lib/api/response"
	"communitybot/lib/sl"
)

type Core interface {
	DailyCheckins(ctx context.Context, day string) (int64, error)
	UserStats(ctx context.Context, userId int64) (*entity.UserStats, error)
}

type dayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Checkins serves the number of distinct users who checked in on a day.
// Day format: 2006-01-02.
func Checkins(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		day := chi.URLParam(r, "day")
		count, err := handler.DailyCheckins(r.Context(), day)
		if err != nil {
			logger.Error("daily check-ins", slog.String("day", day), sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid day or store unavailable"))
			return
		}

		render.JSON(w, r, response.Ok(dayCount{Day: day, Count: count}))
	}
}

// User serves the counter snapshot for one user: points, invites and
// whether a restriction is pending.
func User(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := cont.GetUser(r.Context())
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int64("caller", caller.TelegramId),
		)

		userId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid user id"))
			return
		}

		userStats, err := handler.UserStats(r.Context(), userId)
		if err != nil {
			logger.Error("user stats", slog.Int64("user_id", userId), sl.Err(err))
			render.Status(r, 503)
			render.JSON(w, r, response.Error("Store unavailable"))
			return
		}

		render.JSON(w, r, response.Ok(userStats))
	}
}
