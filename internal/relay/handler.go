package relay

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ballot-chain/ballot_chain/internal/identity"
	"github.com/ballot-chain/ballot_chain/internal/registry"
)

// Handler exposes the relay over HTTP.
type Handler struct {
	service  *Service
	registry registry.Registry
}

// NewHandler constructs a relay handler.
func NewHandler(service *Service, reg registry.Registry) *Handler {
	return &Handler{service: service, registry: reg}
}

type accountRequest struct {
	Email string `json:"email"`
}

type relayActionRequest struct {
	Email          string `json:"email"`
	ElectionID     uint64 `json:"election_id"`
	CandidateEmail string `json:"candidate_email"`
}

type createElectionRequest struct {
	Email             string    `json:"email"`
	Position          string    `json:"position"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	ElectionStart     time.Time `json:"election_start"`
	ElectionEnd       time.Time `json:"election_end"`
}

// CreateAccount provisions (or returns) the smart account for an email.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req accountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.EnsureAccount(c.UserContext(), req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(record)
}

// GetAccount looks up a provisioned account without deploying anything.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	email := identity.Normalize(c.Params("email"))
	record, err := h.registry.Get(c.UserContext(), email)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "no account for this email")
		}
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(record)
}

// VoterToken reports the voter token state for a provisioned account.
func (h *Handler) VoterToken(c *fiber.Ctx) error {
	email := identity.Normalize(c.Params("email"))
	record, err := h.registry.Get(c.UserContext(), email)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "no account for this email")
		}
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}

	balance, electionID, err := h.service.VoterToken(c.UserContext(), record.AccountAddress)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"account":     record.AccountAddress.Hex(),
		"balance":     balance.String(),
		"election_id": electionID.String(),
	})
}

// Vote relays a sponsored ballot.
func (h *Handler) Vote(c *fiber.Ctx) error {
	var req relayActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.RelayVote(c.UserContext(), req.Email, req.ElectionID, req.CandidateEmail)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// AddCandidate relays a sponsored candidate registration.
func (h *Handler) AddCandidate(c *fiber.Ctx) error {
	var req relayActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.RelayAddCandidate(c.UserContext(), req.Email, req.ElectionID, req.CandidateEmail)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// CreateElection relays a sponsored election creation.
func (h *Handler) CreateElection(c *fiber.Ctx) error {
	var req createElectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.RelayCreateElection(c.UserContext(), req.Email, req.Position,
		req.RegistrationStart, req.RegistrationEnd, req.ElectionStart, req.ElectionEnd)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// CurrentElectionID reports the election contract's running id counter.
func (h *Handler) CurrentElectionID(c *fiber.Ctx) error {
	counter, err := h.service.CurrentElectionID(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"election_id_counter": counter.String()})
}

// ElectionInfo returns stored election metadata.
func (h *Handler) ElectionInfo(c *fiber.Ctx) error {
	electionID, err := electionIDParam(c)
	if err != nil {
		return err
	}
	info, err := h.service.ElectionInfo(c.UserContext(), electionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"election_id":        info.ElectionID.String(),
		"position":           info.Position,
		"registration_start": info.RegStart.String(),
		"registration_end":   info.RegEnd.String(),
		"election_start":     info.ElectionStart.String(),
		"election_end":       info.ElectionEnd.String(),
		"token":              info.Token.Hex(),
		"winner":             info.Winner,
	})
}

// Candidates lists candidate identifiers for an election.
func (h *Handler) Candidates(c *fiber.Ctx) error {
	electionID, err := electionIDParam(c)
	if err != nil {
		return err
	}
	candidates, err := h.service.Candidates(c.UserContext(), electionID)
	if err != nil {
		return writeError(c, err)
	}
	if candidates == nil {
		candidates = []string{}
	}
	return c.JSON(fiber.Map{"candidates": candidates})
}

// CandidateVotes returns the tally for one candidate.
func (h *Handler) CandidateVotes(c *fiber.Ctx) error {
	electionID, err := electionIDParam(c)
	if err != nil {
		return err
	}
	votes, err := h.service.CandidateVotes(c.UserContext(), electionID, c.Params("candidateEmail"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"votes": votes.String()})
}

func electionIDParam(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("electionId"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "electionId must be a non-negative integer")
	}
	return id, nil
}

// writeError maps relay error kinds onto HTTP statuses, keeping the raw
// revert payload visible to callers that want to decode it themselves.
func writeError(c *fiber.Ctx, err error) error {
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	status := http.StatusInternalServerError
	switch relayErr.Kind {
	case KindInvalidInput:
		status = http.StatusBadRequest
	case KindOwnerMismatch:
		status = http.StatusConflict
	case KindRegistryUnavailable:
		status = http.StatusServiceUnavailable
	case KindChainRPCFailure:
		status = http.StatusBadGateway
	case KindReverted:
		status = http.StatusUnprocessableEntity
	case KindTimeout:
		status = http.StatusGatewayTimeout
	}

	body := fiber.Map{
		"success": false,
		"error":   relayErr.Message,
		"code":    relayErr.Kind,
	}
	if data := relayErr.DataHex(); data != "" {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}
