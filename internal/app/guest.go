package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
)

// GuestFile stores anonymous progress as a JSON document on disk.
type GuestFile struct {
	path string
}

func NewGuestFile(path string) *GuestFile {
	return &GuestFile{path: path}
}

func (g *GuestFile) Path() string { return g.path }

type guestDocument struct {
	Courses        map[string]guestCourse `json:"courses"`
	Modules        map[string]guestModule `json:"modules,omitempty"`
	BypassAttempts map[string]bool        `json:"bypass_attempts,omitempty"`
}

type guestCourse struct {
	CompletedModules []string               `json:"completed_modules"`
	CFUAnswers       map[string]guestAnswer `json:"cfu_answers,omitempty"`
	Status           domain.CourseStatus    `json:"status"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type guestAnswer struct {
	SelectedAnswer string    `json:"selected_answer"`
	Correct        bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

type guestModule struct {
	Mastered   bool       `json:"mastered"`
	MasteredAt *time.Time `json:"mastered_at,omitempty"`
}

// Load reads the guest snapshot. A missing file is an empty snapshot.
func (g *GuestFile) Load() (*domain.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading guest progress: %w", err)
	}
	return ParseGuestSnapshot(data)
}

// ParseGuestSnapshot decodes a guest progress document.
func ParseGuestSnapshot(data []byte) (*domain.Snapshot, error) {
	var doc guestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing guest progress: %w", err)
	}

	snap := domain.NewSnapshot()
	for id, c := range doc.Courses {
		if c.Status != "" && !domain.ValidCourseStatuses[string(c.Status)] {
			return nil, fmt.Errorf("parsing guest progress: course %q has invalid status %q", id, c.Status)
		}
		cp := domain.NewCourseProgress(id)
		cp.CompletedModules = c.CompletedModules
		if c.Status != "" {
			cp.Status = c.Status
		}
		cp.UpdatedAt = c.UpdatedAt
		for cfuID, a := range c.CFUAnswers {
			cp.CFUAnswers[cfuID] = domain.CFUAnswer{SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, AnsweredAt: a.AnsweredAt}
		}
		snap.Courses[id] = cp
	}
	for id, m := range doc.Modules {
		snap.Modules[id] = &domain.ModuleProgress{ModuleID: id, Mastered: m.Mastered, MasteredAt: m.MasteredAt}
	}
	for key, attempted := range doc.BypassAttempts {
		tier, err := strconv.Atoi(key)
		if err != nil || tier < 1 {
			return nil, fmt.Errorf("parsing guest progress: invalid tier %q", key)
		}
		snap.BypassAttempts[tier] = attempted
	}
	return snap, nil
}

// Save writes snap, replacing the previous file atomically.
func (g *GuestFile) Save(snap *domain.Snapshot) error {
	data, err := MarshalGuestSnapshot(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("creating guest progress directory: %w", err)
	}
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing guest progress: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		return fmt.Errorf("replacing guest progress: %w", err)
	}
	return nil
}

// MarshalGuestSnapshot encodes snap as a guest progress document.
func MarshalGuestSnapshot(snap *domain.Snapshot) ([]byte, error) {
	doc := guestDocument{Courses: map[string]guestCourse{}}
	if snap != nil {
		for id, cp := range snap.Courses {
			c := guestCourse{
				CompletedModules: cp.CompletedModules,
				Status:           cp.Status,
				UpdatedAt:        cp.UpdatedAt,
			}
			if c.CompletedModules == nil {
				c.CompletedModules = []string{}
			}
			if len(cp.CFUAnswers) > 0 {
				c.CFUAnswers = make(map[string]guestAnswer, len(cp.CFUAnswers))
				for cfuID, a := range cp.CFUAnswers {
					c.CFUAnswers[cfuID] = guestAnswer{SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, AnsweredAt: a.AnsweredAt}
				}
			}
			doc.Courses[id] = c
		}
		for id, m := range snap.Modules {
			if doc.Modules == nil {
				doc.Modules = map[string]guestModule{}
			}
			doc.Modules[id] = guestModule{Mastered: m.Mastered, MasteredAt: m.MasteredAt}
		}
		for tier, attempted := range snap.BypassAttempts {
			if doc.BypassAttempts == nil {
				doc.BypassAttempts = map[string]bool{}
			}
			doc.BypassAttempts[strconv.Itoa(tier)] = attempted
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding guest progress: %w", err)
	}
	return data, nil
}

// Clear removes the file. A missing file is not an error.
func (g *GuestFile) Clear() error {
	if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing guest progress: %w", err)
	}
	return nil
}
