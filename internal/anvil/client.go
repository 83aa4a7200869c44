// Package anvil implements the AnVIL (Terra) API client. Calls are
// authenticated as the app's service account, rate limited, and surface
// "not found" as *domain.NotFoundError so the auditors can distinguish a
// missing resource from an infrastructure failure.
package anvil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"anviltrack/internal/config"
	"anviltrack/internal/domain"
)

// Scopes the Terra API expects from a service-account token.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Options holds the dependencies of a Client.
type Options struct {
	BaseURL             string
	ServiceAccountEmail string
	// HTTPClient must already carry authentication.
	HTTPClient *http.Client
	// Buckets is used for requester-pays checks; optional, calls that
	// need it fail cleanly when absent.
	Buckets *storage.Client
	// RPS/Burst bound the request rate; zero values fall back to the
	// package defaults.
	RPS    float64
	Burst  int
	Logger *slog.Logger
}

const (
	defaultRPS   = 10
	defaultBurst = 20
)

// Client talks to one Terra deployment.
type Client struct {
	base    *url.URL
	http    *http.Client
	buckets *storage.Client
	limiter *rate.Limiter
	saEmail string
	logger  *slog.Logger
}

var _ domain.AnVILClient = (*Client)(nil)

// statusError is a non-2xx Terra response other than not-found.
type statusError struct {
	path string
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.path, e.code, e.body)
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, domain.ErrValidation("anvil base URL is required")
	}
	if opts.ServiceAccountEmail == "" {
		return nil, domain.ErrValidation("service account email is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, domain.ErrValidation("invalid anvil base URL %q: %v", opts.BaseURL, err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:    base,
		http:    hc,
		buckets: opts.Buckets,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		saEmail: strings.ToLower(opts.ServiceAccountEmail),
		logger:  logger,
	}, nil
}

// Dial builds an authenticated client from app config: the credentials
// file is a Google service-account key used for both Terra calls and
// bucket metadata reads.
func Dial(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	data, err := os.ReadFile(cfg.AnVILCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, oauthScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	buckets, err := storage.NewClient(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return NewClient(Options{
		BaseURL:             cfg.AnVILBaseURL,
		ServiceAccountEmail: cfg.ServiceAccountEmail,
		HTTPClient:          oauth2.NewClient(ctx, creds.TokenSource),
		Buckets:             buckets,
		RPS:                 cfg.AnVILRateLimitRPS,
		Burst:               cfg.AnVILRateLimitBurst,
		Logger:              logger,
	})
}

func (c *Client) ServiceAccountEmail() string { return c.saEmail }

// get performs a rate-limited GET and decodes the JSON body into out.
// A 404 (and a 204, which Terra uses for absent proxy groups) becomes a
// *domain.NotFoundError; any other non-2xx status is an opaque failure.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("anvil request", "path", path, "status", resp.StatusCode, "duration", time.Since(started))

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return domain.ErrNotFound("GET %s: not found", path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{path: path, code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

// Status checks the Terra status endpoint.
func (c *Client) Status(ctx context.Context) error {
	var body struct {
		OK bool `json:"ok"`
	}
	if err := c.get(ctx, "/status", nil, &body); err != nil {
		return err
	}
	if !body.OK {
		return fmt.Errorf("anvil reports unhealthy status")
	}
	return nil
}

// Me returns the email Terra registered for the client's credentials.
func (c *Client) Me(ctx context.Context) (string, error) {
	var body struct {
		UserInfo struct {
			UserEmail string `json:"userEmail"`
		} `json:"userInfo"`
	}
	if err := c.get(ctx, "/me", nil, &body); err != nil {
		return "", err
	}
	return strings.ToLower(body.UserInfo.UserEmail), nil
}

func (c *Client) GetBillingProject(ctx context.Context, name string) error {
	return c.get(ctx, "/api/billing/v2/"+url.PathEscape(name), nil, nil)
}

func (c *Client) GetProxyGroup(ctx context.Context, email string) (string, error) {
	var proxy string
	if err := c.get(ctx, "/api/proxyGroup/"+url.PathEscape(email), nil, &proxy); err != nil {
		return "", err
	}
	return proxy, nil
}

// groupListEntry is one row of the Terra group listing.
type groupListEntry struct {
	GroupName  string `json:"groupName"`
	GroupEmail string `json:"groupEmail"`
	Role       string `json:"role"`
}

// GetGroups returns the groups the app holds a role on. A group appears
// once per role; roles are normalized to lowercase.
func (c *Client) GetGroups(ctx context.Context) (map[string][]string, error) {
	var entries []groupListEntry
	if err := c.get(ctx, "/api/groups/v1", nil, &entries); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		out[e.GroupName] = append(out[e.GroupName], strings.ToLower(e.Role))
	}
	return out, nil
}

// groupDetail is the Terra group resource with its rosters. The member
// roster includes admins.
type groupDetail struct {
	GroupEmail    string   `json:"groupEmail"`
	AdminsEmails  []string `json:"adminsEmails"`
	MembersEmails []string `json:"membersEmails"`
}

func (c *Client) getGroup(ctx context.Context, name string) (*groupDetail, error) {
	var detail groupDetail
	if err := c.get(ctx, "/api/groups/v1/"+url.PathEscape(name), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetGroupEmail resolves a group's email. A 403 means the group exists
// but the app holds no role on it; the email is then derived from the
// name, which is how Terra assigns group emails anyway.
func (c *Client) GetGroupEmail(ctx context.Context, name string) (string, error) {
	detail, err := c.getGroup(ctx, name)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusForbidden {
			return strings.ToLower(name) + domain.GroupEmailSuffix, nil
		}
		return "", err
	}
	return detail.GroupEmail, nil
}

func (c *Client) GetGroupMembers(ctx context.Context, name string) ([]string, error) {
	detail, err := c.getGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	return detail.MembersEmails, nil
}

func (c *Client) GetGroupAdmins(ctx context.Context, name string) ([]string, error) {
	detail, err := c.getGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	return detail.AdminsEmails, nil
}

// workspaceListEntry is one row of the Terra workspace listing, limited
// to the fields the auditors compare.
type workspaceListEntry struct {
	AccessLevel string `json:"accessLevel"`
	Workspace   struct {
		Namespace           string `json:"namespace"`
		Name                string `json:"name"`
		IsLocked            bool   `json:"isLocked"`
		AuthorizationDomain []struct {
			MembersGroupName string `json:"membersGroupName"`
		} `json:"authorizationDomain"`
	} `json:"workspace"`
}

func (c *Client) ListWorkspaces(ctx context.Context) ([]domain.RemoteWorkspace, error) {
	query := url.Values{"fields": []string{
		"accessLevel,workspace.namespace,workspace.name,workspace.isLocked,workspace.authorizationDomain",
	}}
	var entries []workspaceListEntry
	if err := c.get(ctx, "/api/workspaces", query, &entries); err != nil {
		return nil, err
	}
	out := make([]domain.RemoteWorkspace, 0, len(entries))
	for _, e := range entries {
		ws := domain.RemoteWorkspace{
			Namespace:   e.Workspace.Namespace,
			Name:        e.Workspace.Name,
			AccessLevel: strings.ToUpper(e.AccessLevel),
			IsLocked:    e.Workspace.IsLocked,
		}
		for _, d := range e.Workspace.AuthorizationDomain {
			ws.AuthDomains = append(ws.AuthDomains, d.MembersGroupName)
		}
		out = append(out, ws)
	}
	return out, nil
}

func (c *Client) GetWorkspaceACL(ctx context.Context, namespace, name string) (map[string]domain.RemoteACLEntry, error) {
	path := fmt.Sprintf("/api/workspaces/%s/%s/acl", url.PathEscape(namespace), url.PathEscape(name))
	var body struct {
		ACL map[string]struct {
			AccessLevel string `json:"accessLevel"`
			CanCompute  bool   `json:"canCompute"`
			CanShare    bool   `json:"canShare"`
			Pending     bool   `json:"pending"`
		} `json:"acl"`
	}
	if err := c.get(ctx, path, nil, &body); err != nil {
		return nil, err
	}
	out := make(map[string]domain.RemoteACLEntry, len(body.ACL))
	for email, entry := range body.ACL {
		// Pending invitations are not effective access yet.
		if entry.Pending {
			continue
		}
		out[email] = domain.RemoteACLEntry{
			AccessLevel: strings.ToUpper(entry.AccessLevel),
			CanCompute:  entry.CanCompute,
			CanShare:    entry.CanShare,
		}
	}
	return out, nil
}
