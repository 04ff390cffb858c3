package statemachine

import "restaurant-platform-api/models"

// Approval is the restaurant onboarding workflow. Resubmission after DECLINED is not a
// transition: it opens a new request.
var Approval = New("restaurant_request", []Transition[models.RequestStatus]{
	// Admin picks the request up, or rejects an incomplete one outright
	{From: models.RequestPending, To: models.RequestInReview, Actor: ActorAdmin},
	{From: models.RequestPending, To: models.RequestDeclined, Actor: ActorAdmin},
	// Admin decides
	{From: models.RequestInReview, To: models.RequestApproved, Actor: ActorAdmin},
	{From: models.RequestInReview, To: models.RequestDeclined, Actor: ActorAdmin},
})

// Orders is one-way; Accepted is terminal.
var Orders = New("order", []Transition[models.OrderStatus]{
	{From: models.OrderNotAccepted, To: models.OrderAccepted, Actor: ActorRestaurant},
})
