package crm

import (
	"context"
	"encoding/json"
	"maps"
	"strings"

	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// Stats loads a statistics report (DefaultStatsKind if kind is empty).
// Reports are cached for StatsTTL. Failures are returned.
func (s *Service) Stats(ctx context.Context, kind string) (json.RawMessage, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = DefaultStatsKind
	}

	key := cacheKey("stats", map[string]any{"type": kind})

	var cached json.RawMessage
	if s.state.GetCacheItem(ctx, key, &cached) {
		return cached, nil
	}

	s.state.SetLoading(ctx, "Chargement statistiques...")

	v, err, _ := s.fetches.Do(key, func() (any, error) {
		resp, err := s.client.Call(ctx, config.WebhookGateway, s.envelope(string(config.ActionStats), map[string]any{
			"type": kind,
		}), client.CallOptions{})
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, resp.Data, StatsTTL)
		return resp.Data, nil
	})
	if err != nil {
		return nil, s.fail(ctx, "Erreur statistiques", err)
	}

	s.state.SetSuccess(ctx, "Statistiques chargées")
	return v.(json.RawMessage), nil
}

// CreateEnterprise registers a new enterprise. The session cache is
// cleared on success so that searches see the new record.
func (s *Service) CreateEnterprise(ctx context.Context, data map[string]any) (*client.Response, error) {
	payload := make(map[string]any, len(data)+2)
	maps.Copy(payload, data)
	payload["created_by"] = s.userID()
	payload["created_at"] = s.now().UTC()

	s.state.SetLoading(ctx, "Création entreprise...")

	resp, err := s.client.Call(ctx, config.WebhookEnterpriseForm, s.envelope("create_enterprise", payload), client.CallOptions{})
	if err != nil {
		return nil, s.fail(ctx, "Erreur création entreprise", err)
	}

	s.state.SetSuccess(ctx, "Entreprise créée avec succès")

	if err := s.state.ClearCache(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Cache not cleared after enterprise creation")
	}

	return resp, nil
}

// EmailOptions addresses a document e-mail.
type EmailOptions struct {
	To      string   `json:"to"`
	CC      []string `json:"cc,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Message string   `json:"message,omitempty"`
}

// SendDocumentByEmail asks the e-mail workflow to send document.
func (s *Service) SendDocumentByEmail(ctx context.Context, document any, email EmailOptions) (*client.Response, error) {
	s.state.SetLoading(ctx, "Envoi email...")

	resp, err := s.client.Call(ctx, config.WebhookEmail, s.envelope("send_email", map[string]any{
		"document": document,
		"email":    email,
	}), client.CallOptions{})
	if err != nil {
		return nil, s.fail(ctx, "Erreur envoi email", err)
	}

	s.state.SetSuccess(ctx, "Email envoyé avec succès")
	return resp, nil
}

// AgentContext is the session context sent along with an agent query.
type AgentContext struct {
	SelectedEnterprise *model.Enterprise   `json:"selected_enterprise"`
	CurrentAction      config.Action       `json:"current_action"`
	Publications       []model.Publication `json:"publications"`
	User               *model.User         `json:"user"`
}

// AskAgent sends a free-form query to the assistant agent along with the
// session context.
func (s *Service) AskAgent(ctx context.Context, query string) (*client.Response, error) {
	ac := AgentContext{
		SelectedEnterprise: s.state.SelectedEnterprise(),
		CurrentAction:      s.state.CurrentAction(),
		Publications:       s.state.Publications(),
	}
	if u, ok := s.state.User(); ok {
		ac.User = &u
	}

	s.state.SetLoading(ctx, "Analyse IA en cours...")

	resp, err := s.client.Call(ctx, config.WebhookAgent, s.envelope("agent_query", map[string]any{
		"query":   query,
		"context": ac,
	}), client.CallOptions{})
	if err != nil {
		return nil, s.fail(ctx, "Erreur analyse IA", err)
	}

	s.state.SetSuccess(ctx, "Analyse IA terminée")
	return resp, nil
}
