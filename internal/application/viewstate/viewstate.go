// Package viewstate maps snapshot streams and form results to the states the
// client screens render.
package viewstate

import (
	"pettie-backend/internal/domain"
	"pettie-backend/internal/realtime"
)

// Kind is the discriminator sent as "state".
type Kind string

const (
	Initial Kind = "initial"
	Idle    Kind = "idle"
	Loading Kind = "loading"
	Empty   Kind = "empty"
	Success Kind = "success"
	Error   Kind = "error"
)

// Fallback messages used when an error carries no text.
const (
	MsgLoadListings  = "Failed to load listings"
	MsgLoadListing   = "Failed to load listing"
	MsgNotSignedIn   = "Not signed in"
	MsgLoginFailed   = "Login failed"
	MsgRegisterFail  = "Registration failed"
	MsgResetFailed   = "Failed to send reset email"
	MsgCreateListing = "Failed to create listing"
)

// HomeState is the home feed screen.
type HomeState struct {
	State    Kind                `json:"state"`
	Listings []domain.PetListing `json:"listings,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// ProfileState is the signed-in user's profile with their listings.
type ProfileState struct {
	State    Kind                `json:"state"`
	User     *domain.User        `json:"user,omitempty"`
	Listings []domain.PetListing `json:"listings"`
	Message  string              `json:"message,omitempty"`
}

// ListingDetailState is a single listing screen.
type ListingDetailState struct {
	State   Kind               `json:"state"`
	Listing *domain.PetListing `json:"listing,omitempty"`
	Message string             `json:"message,omitempty"`
}

// FormState is the result of a submitted form.
type FormState struct {
	State   Kind   `json:"state"`
	Message string `json:"message,omitempty"`
}

// Message returns err's text, or fallback when it has none.
func Message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

func HomeLoading() HomeState { return HomeState{State: Loading} }

// Home maps one recent-listings snapshot; no listings is Empty, not Success.
func Home(snap realtime.Snapshot[[]domain.PetListing]) HomeState {
	if snap.Err != nil {
		return HomeState{State: Error, Message: Message(snap.Err, MsgLoadListings)}
	}
	if len(snap.Value) == 0 {
		return HomeState{State: Empty}
	}
	return HomeState{State: Success, Listings: snap.Value}
}

func ProfileLoading() ProfileState {
	return ProfileState{State: Loading, Listings: []domain.PetListing{}}
}

// ProfileNotSignedIn is the terminal state without a session.
func ProfileNotSignedIn() ProfileState {
	return ProfileState{State: Error, Message: MsgNotSignedIn, Listings: []domain.PetListing{}}
}

// Profile maps one listings-by-user snapshot. An empty list is still Success.
func Profile(user *domain.User, snap realtime.Snapshot[[]domain.PetListing]) ProfileState {
	if snap.Err != nil {
		return ProfileState{State: Error, Message: Message(snap.Err, MsgLoadListings), Listings: []domain.PetListing{}}
	}
	listings := snap.Value
	if listings == nil {
		listings = []domain.PetListing{}
	}
	return ProfileState{State: Success, User: user, Listings: listings}
}

func ListingDetailLoading() ListingDetailState { return ListingDetailState{State: Loading} }

// ListingDetail maps one single-listing snapshot; a missing listing is Empty.
func ListingDetail(snap realtime.Snapshot[*domain.PetListing]) ListingDetailState {
	if snap.Err != nil {
		return ListingDetailState{State: Error, Message: Message(snap.Err, MsgLoadListing)}
	}
	if snap.Value == nil {
		return ListingDetailState{State: Empty}
	}
	return ListingDetailState{State: Success, Listing: snap.Value}
}

func FormInitial() FormState { return FormState{State: Initial} }
func FormIdle() FormState    { return FormState{State: Idle} }
func FormLoading() FormState { return FormState{State: Loading} }
func FormSuccess() FormState { return FormState{State: Success} }

func FormError(message string) FormState {
	return FormState{State: Error, Message: message}
}
