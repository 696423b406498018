package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recipesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_api_recipes_created_total",
			Help: "Total number of recipes created",
		},
	)
	recipesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_api_recipes_updated_total",
			Help: "Total number of recipe updates (full and partial)",
		},
	)
	recipesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_api_recipes_deleted_total",
			Help: "Total number of recipes deleted",
		},
	)

	usersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_api_users_registered_total",
			Help: "Total number of user registrations",
		},
	)
	tokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_api_token_requests_total",
			Help: "Token requests by outcome",
		},
		[]string{"outcome"}, // "issued" or "rejected"
	)
)
