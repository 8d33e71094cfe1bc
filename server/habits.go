package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/existflow/habitgrid/internal/db"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/model"
)

// titleName capitalises each word of a habit name, leaving the rest of the
// word alone so acronyms survive
func titleName(name string) string {
	return cases.Title(language.English, cases.NoLower).String(name)
}

// cleanForm validates a submitted form and returns it ready to store
func cleanForm(f model.HabitForm) (model.HabitForm, error) {
	if err := f.Validate(); err != nil {
		return model.HabitForm{}, err
	}
	f = f.Normalize()
	f.Name = titleName(f.Name)
	return f, nil
}

func (s *Server) handleListHabits(c echo.Context) error {
	userID, ok := idParam(c, "userId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid userId")
	}

	habits, err := s.db.ListHabits(c.Request().Context(), userID, false)
	if err != nil {
		return storeError(c, "list habits", err)
	}
	return c.JSON(http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(c echo.Context) error {
	userID, ok := idParam(c, "userId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid userId")
	}

	var form model.HabitForm
	if err := c.Bind(&form); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	form, err := cleanForm(form)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	h, err := s.db.CreateHabit(c.Request().Context(), userID, form)
	if err != nil {
		return storeError(c, "create habit", err)
	}
	logger.Info("Habit created", logger.F("id", h.ID), logger.F("userID", userID), logger.F("name", h.Name))
	return c.JSON(http.StatusCreated, h)
}

func (s *Server) handleUpdateHabit(c echo.Context) error {
	id, ok := idParam(c, "habitId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid habitId")
	}

	var h model.Habit
	if err := c.Bind(&h); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	h.ID = id

	form, err := cleanForm(h.Form())
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	h = h.Apply(form)

	ctx := c.Request().Context()
	if err := s.db.UpdateHabit(ctx, h); err != nil {
		return storeError(c, "update habit", err)
	}
	updated, err := s.db.GetHabit(ctx, id)
	if err != nil {
		return storeError(c, "update habit", err)
	}
	return c.JSON(http.StatusOK, updated)
}

// handleUpdateHabits saves a batch of habits, used when the user reorders
func (s *Server) handleUpdateHabits(c echo.Context) error {
	userID, ok := idParam(c, "userId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid userId")
	}

	var habits []model.Habit
	if err := c.Bind(&habits); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	for i, h := range habits {
		owner, err := s.db.HabitOwner(ctx, h.ID)
		if errors.Is(err, db.ErrNotFound) || (err == nil && owner != userID) {
			return errorJSON(c, http.StatusNotFound, fmt.Sprintf("habit %d not found", h.ID))
		}
		if err != nil {
			return storeError(c, "update habits", err)
		}

		form, err := cleanForm(h.Form())
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("habit %d: %v", h.ID, err))
		}
		habits[i] = h.Apply(form)
	}

	if err := s.db.UpdateHabits(ctx, habits); err != nil {
		return storeError(c, "update habits", err)
	}

	updated, err := s.db.ListHabits(ctx, userID, false)
	if err != nil {
		return storeError(c, "update habits", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteHabit(c echo.Context) error {
	id, ok := idParam(c, "habitId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid habitId")
	}

	ctx := c.Request().Context()
	h, err := s.db.GetHabit(ctx, id)
	if err != nil {
		return storeError(c, "delete habit", err)
	}
	if err := s.db.DeleteHabit(ctx, id); err != nil {
		return storeError(c, "delete habit", err)
	}
	logger.Info("Habit deleted", logger.F("id", id), logger.F("entries", len(h.Entries)))
	return c.JSON(http.StatusOK, h)
}

type createEntryRequest struct {
	HabitID int64     `json:"habitId"`
	Date    time.Time `json:"date"`
}

func (s *Server) handleCreateEntry(c echo.Context) error {
	var req createEntryRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.HabitID <= 0 {
		return errorJSON(c, http.StatusBadRequest, "habitId is required")
	}
	if req.Date.IsZero() {
		return errorJSON(c, http.StatusBadRequest, "date is required")
	}

	e, err := s.db.CreateEntry(c.Request().Context(), req.HabitID, req.Date)
	if err != nil {
		return storeError(c, "create entry", err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) handleDeleteEntry(c echo.Context) error {
	id, ok := idParam(c, "entryId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid entryId")
	}

	if err := s.db.DeleteEntry(c.Request().Context(), id); err != nil {
		return storeError(c, "delete entry", err)
	}
	return c.NoContent(http.StatusNoContent)
}
