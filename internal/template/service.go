package template

import (
	"context"
	"sort"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

const (
	storageKind = "template"
	maxNameLen  = 100
	maxCount    = 100
)

// Service implements the Template Registry.
type Service struct {
	store    storage.Backend
	sessions *session.Service
}

// NewService creates a Template Registry bound to a Session Manager.
func NewService(store storage.Backend, sessions *session.Service) *Service {
	return &Service{store: store, sessions: sessions}
}

// Create stores a new named template.
func (s *Service) Create(ctx context.Context, name, description string, cfg types.SessionConfig) (*types.Template, error) {
	if name == "" || len(name) > maxNameLen {
		return nil, apperr.NewValidation("invalid template name", apperr.Issue{Field: "name", Message: "must be 1-100 characters"})
	}
	if s.store.Exists(ctx, []string{storageKind, name}) {
		return nil, apperr.NewConflict("template already exists")
	}

	names, err := s.store.List(ctx, []string{storageKind})
	if err != nil {
		return nil, err
	}
	if len(names) >= maxCount {
		return nil, apperr.NewConflict("template registry is at capacity")
	}

	tpl := &types.Template{
		Name:        name,
		Description: description,
		Config:      cfg,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Put(ctx, []string{storageKind, name}, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Get fetches a template by name.
func (s *Service) Get(ctx context.Context, name string) (*types.Template, error) {
	var tpl types.Template
	if err := s.store.Get(ctx, []string{storageKind, name}, &tpl); err != nil {
		if err == storage.ErrNotFound {
			return nil, apperr.NewNotFound("template not found")
		}
		return nil, err
	}
	return &tpl, nil
}

// List returns all templates, sorted by name.
func (s *Service) List(ctx context.Context) ([]*types.Template, error) {
	names, err := s.store.List(ctx, []string{storageKind})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]*types.Template, 0, len(names))
	for _, name := range names {
		tpl, err := s.Get(ctx, name)
		if err != nil {
			continue
		}
		out = append(out, tpl)
	}
	return out, nil
}

// Delete removes a template by name.
func (s *Service) Delete(ctx context.Context, name string) error {
	if !s.store.Exists(ctx, []string{storageKind, name}) {
		return apperr.NewNotFound("template not found")
	}
	return s.store.Delete(ctx, []string{storageKind, name})
}

// CreateFromTemplate merges overrides over a stored template's config and
// delegates to the Session Manager, incrementing the template's usage
// counter on success.
func (s *Service) CreateFromTemplate(ctx context.Context, name string, overrides types.TemplateOverrides) (*types.Session, error) {
	tpl, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	cfg := tpl.Config
	if overrides.Prompt != nil {
		cfg.Prompt = *overrides.Prompt
	}
	if overrides.Source != nil {
		cfg.Source = *overrides.Source
	}
	if overrides.Branch != nil {
		cfg.Branch = *overrides.Branch
	}
	if overrides.Title != nil {
		cfg.Title = *overrides.Title
	}

	sess, err := s.sessions.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tpl.UsageCount++
	if err := s.store.Put(ctx, []string{storageKind, name}, tpl); err != nil {
		return nil, err
	}
	return sess, nil
}
