package listings

import (
	"context"
	"strconv"

	"pettie-backend/internal/domain"
	"pettie-backend/internal/realtime"

	"github.com/google/uuid"
)

// Feeds are the live versions of the listing reads. Each key shares one listener.
type Feeds struct {
	Service *Service
	Recent  *realtime.Feed[[]domain.PetListing]
	ByUser  *realtime.Feed[[]domain.PetListing]
	Single  *realtime.Feed[*domain.PetListing]
}

// NewFeeds builds the three listing feeds over src.
func NewFeeds(svc *Service, src realtime.Source) *Feeds {
	return &Feeds{
		Service: svc,
		Recent:  &realtime.Feed[[]domain.PetListing]{Name: "recent", Source: src},
		ByUser:  &realtime.Feed[[]domain.PetListing]{Name: "user", Source: src},
		Single:  &realtime.Feed[*domain.PetListing]{Name: "listing", Source: src},
	}
}

// SubscribeRecent follows the newest listings. Any write can change the page.
func (f *Feeds) SubscribeRecent(ctx context.Context, limit int) *realtime.Subscription[[]domain.PetListing] {
	limit = NormalizeLimit(limit)
	key := "recent:" + strconv.Itoa(limit)
	return f.Recent.Subscribe(ctx, key, func(ctx context.Context) ([]domain.PetListing, error) {
		return f.Service.GetRecentListings(ctx, limit)
	}, nil)
}

// SubscribeByUser follows one seller's listings.
func (f *Feeds) SubscribeByUser(ctx context.Context, userID uuid.UUID) *realtime.Subscription[[]domain.PetListing] {
	id := userID.String()
	return f.ByUser.Subscribe(ctx, "user:"+id, func(ctx context.Context) ([]domain.PetListing, error) {
		return f.Service.GetListingsByUser(ctx, userID)
	}, func(ch realtime.Change) bool {
		return ch.SellerID == id
	})
}

// SubscribeListing follows a single listing; a missing listing yields a nil value.
func (f *Feeds) SubscribeListing(ctx context.Context, listingID uuid.UUID) *realtime.Subscription[*domain.PetListing] {
	id := listingID.String()
	return f.Single.Subscribe(ctx, "listing:"+id, func(ctx context.Context) (*domain.PetListing, error) {
		return f.Service.GetListing(ctx, listingID)
	}, func(ch realtime.Change) bool {
		return ch.ListingID == id
	})
}

// Listeners reports open backend listeners per feed.
func (f *Feeds) Listeners() map[string]int {
	return map[string]int{
		f.Recent.Name: f.Recent.Listeners(),
		f.ByUser.Name: f.ByUser.Listeners(),
		f.Single.Name: f.Single.Listeners(),
	}
}
