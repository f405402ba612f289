package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ballot-chain/ballot_chain/internal/middleware"
	"github.com/ballot-chain/ballot_chain/internal/relay"
)

// RegisterRelayRoutes wires account provisioning, sponsored relay actions
// and election reads. The write endpoints sit behind the rate limiter and,
// when Redis is available, the idempotency guard: a retried relay request
// must not burn sponsor funds twice.
func RegisterRelayRoutes(r fiber.Router, h *relay.Handler, d Deps) {
	// Reads
	r.Get("/accounts/:email", h.GetAccount)
	r.Get("/accounts/:email/voter-token", h.VoterToken)
	r.Get("/elections/current", h.CurrentElectionID)
	r.Get("/elections/:electionId", h.ElectionInfo)
	r.Get("/elections/:electionId/candidates", h.Candidates)
	r.Get("/elections/:electionId/candidates/:candidateEmail/votes", h.CandidateVotes)

	// Writes
	writes := r.Group("", middleware.RelayRateLimit(d.Cache, d.Cfg.RelayRateLimitPerMin))
	if d.Cache != nil {
		writes = writes.Group("", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	writes.Post("/accounts", h.CreateAccount)
	writes.Post("/relay/votes", h.Vote)
	writes.Post("/relay/candidates", h.AddCandidate)
	writes.Post("/relay/elections", h.CreateElection)
}
