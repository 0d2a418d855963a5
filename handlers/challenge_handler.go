package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"habit21API/internal/challenge"
	"habit21API/services"
)

type ChallengeHandler struct {
	appService *services.AppService
}

func NewChallengeHandler(appService *services.AppService) *ChallengeHandler {
	return &ChallengeHandler{
		appService: appService,
	}
}

// GetApp returns the full view/record/progress snapshot the client
// renders from.
func (h *ChallengeHandler) GetApp(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.appService.Snapshot())
}

// Navigate moves between the home and selection screens.
func (h *ChallengeHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch services.View(body.View) {
	case services.ViewSelection:
		if err := h.appService.OpenSelection(); err != nil {
			respondWithError(w, http.StatusConflict, "A challenge is already active")
			return
		}
	case services.ViewHome:
		h.appService.BackToHome()
	default:
		respondWithError(w, http.StatusBadRequest, "Unknown view")
		return
	}

	respondWithJSON(w, http.StatusOK, h.appService.Snapshot())
}

// GetPresets serves the ready-made habit list for the selection screen.
func (h *ChallengeHandler) GetPresets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, challenge.PresetHabits)
}

func (h *ChallengeHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		HabitName string `json:"habitName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.appService.Start(ctx, body.HabitName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChallengeActive):
			respondWithError(w, http.StatusConflict, "A challenge is already active")
		case errors.Is(err, challenge.ErrEmptyHabitName):
			respondWithError(w, http.StatusBadRequest, "Habit name is required")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, rec)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	rec, err := h.appService.Record()
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No active challenge")
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (h *ChallengeHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Day int `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.appService.CompleteDay(ctx, body.Day)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoChallenge):
			respondWithError(w, http.StatusNotFound, "No active challenge")
		case errors.Is(err, challenge.ErrDayAlreadyCompleted):
			respondWithError(w, http.StatusConflict, "Day already completed")
		case errors.Is(err, challenge.ErrDayLocked), errors.Is(err, challenge.ErrInvalidDay):
			respondWithError(w, http.StatusBadRequest, "Day cannot be completed yet")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

// RestartChallenge clears all progress. The destructive action must be
// confirmed explicitly with ?confirm=true.
func (h *ChallengeHandler) RestartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.appService.Restart(ctx, confirmed); err != nil {
		switch {
		case errors.Is(err, services.ErrConfirmationRequired):
			respondWithError(w, http.StatusConflict, "Restart requires confirm=true")
		case errors.Is(err, services.ErrNoChallenge):
			respondWithError(w, http.StatusNotFound, "No active challenge")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge cleared"})
}

func (h *ChallengeHandler) GetMotivation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	text, err := h.appService.Motivation(ctx)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No active challenge")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *ChallengeHandler) GetShareText(w http.ResponseWriter, r *http.Request) {
	text, err := h.appService.ShareText()
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No active challenge")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
