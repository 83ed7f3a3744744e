package streams

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	listsvc "pettie-backend/internal/application/listings"
	usersvc "pettie-backend/internal/application/user"
	"pettie-backend/internal/application/viewstate"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"
	"pettie-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const DefaultHeartbeat = 15 * time.Second

// Handlers republish the listing feeds as Server-Sent Events. Each connection owns
// one subscription, released when the client goes away.
type Handlers struct {
	Feeds     *listsvc.Feeds
	Users     *usersvc.Service
	Heartbeat time.Duration
}

func (h *Handlers) heartbeat() time.Duration {
	if h.Heartbeat > 0 {
		return h.Heartbeat
	}
	return DefaultHeartbeat
}

// Home GET /api/v1/streams/home?limit=
func (h *Handlers) Home(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	hb := h.heartbeat()
	return stream(c, func(ctx context.Context, w *bufio.Writer) error {
		sub := h.Feeds.SubscribeRecent(ctx, limit)
		return pump(w, viewstate.HomeLoading(), sub, func(s realtime.Snapshot[[]domain.PetListing]) interface{} {
			return viewstate.Home(s)
		}, hb)
	})
}

// UserListings GET /api/v1/streams/users/:user_id/listings
func (h *Handlers) UserListings(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user ID", fiber.StatusBadRequest, nil)
	}
	hb := h.heartbeat()
	return stream(c, func(ctx context.Context, w *bufio.Writer) error {
		sub := h.Feeds.SubscribeByUser(ctx, userID)
		return pump(w, viewstate.HomeLoading(), sub, func(s realtime.Snapshot[[]domain.PetListing]) interface{} {
			return viewstate.Home(s)
		}, hb)
	})
}

// Profile GET /api/v1/streams/profile follows the session user's own listings.
// Without a session it emits the not-signed-in state once and ends.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return stream(c, func(ctx context.Context, w *bufio.Writer) error {
			return writeEvent(w, viewstate.ProfileNotSignedIn())
		})
	}
	user, err := h.Users.GetUser(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("streams: profile lookup failed")
		return stream(c, func(ctx context.Context, w *bufio.Writer) error {
			return writeEvent(w, viewstate.ProfileState{State: viewstate.Error, Message: "Failed to load profile", Listings: []domain.PetListing{}})
		})
	}
	if user == nil {
		return stream(c, func(ctx context.Context, w *bufio.Writer) error {
			return writeEvent(w, viewstate.ProfileNotSignedIn())
		})
	}
	hb := h.heartbeat()
	return stream(c, func(ctx context.Context, w *bufio.Writer) error {
		sub := h.Feeds.SubscribeByUser(ctx, userID)
		return pump(w, viewstate.ProfileLoading(), sub, func(s realtime.Snapshot[[]domain.PetListing]) interface{} {
			return viewstate.Profile(user, s)
		}, hb)
	})
}

// Listing GET /api/v1/streams/listings/:id
func (h *Handlers) Listing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing ID", fiber.StatusBadRequest, nil)
	}
	hb := h.heartbeat()
	return stream(c, func(ctx context.Context, w *bufio.Writer) error {
		sub := h.Feeds.SubscribeListing(ctx, id)
		return pump(w, viewstate.ListingDetailLoading(), sub, func(s realtime.Snapshot[*domain.PetListing]) interface{} {
			return viewstate.ListingDetail(s)
		}, hb)
	})
}

// stream switches the response to text/event-stream and runs body on the
// connection. The context passed to body ends when body returns.
func stream(c *fiber.Ctx, body func(ctx context.Context, w *bufio.Writer) error) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	traceID := middleware.GetTraceID(c)
	path := c.Path()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		log.Debug().Str("trace_id", traceID).Str("path", path).Msg("streams: client connected")
		err := body(ctx, w)
		log.Debug().Err(err).Str("trace_id", traceID).Str("path", path).Msg("streams: client gone")
	}))
	return nil
}

// pump writes the initial state, then one event per snapshot and a comment line
// every heartbeat. It returns when a write fails or the subscription ends, and
// always closes sub.
func pump[T any](w *bufio.Writer, initial interface{}, sub *realtime.Subscription[T], render func(realtime.Snapshot[T]) interface{}, heartbeat time.Duration) error {
	defer sub.Close()
	if err := writeEvent(w, initial); err != nil {
		return err
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeEvent(w, render(snap)); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", b); err != nil {
		return err
	}
	return w.Flush()
}
