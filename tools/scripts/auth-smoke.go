// Package main provides a CI-friendly smoke test for the Aegis auth API.
//
// It validates:
//   - register -> 201
//   - login -> 200 with token pair + cookies
//   - current-user with the access token
//   - refresh rotation -> new pair
//   - replay of the consumed refresh token -> 403
//   - logout, then refresh -> 403
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

type loginData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Aegis base URL")
		email   = flag.String("email", "", "Email to register (default: unique per run)")
		passwd  = flag.String("password", "smoke-test-password-1", "Password to use")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if *email == "" {
		*email = fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: *timeout},
		verbose: *verbose,
	}

	creds := map[string]string{"email": *email, "password": *passwd}

	// Step 1: register.
	st, _, err := c.post("/register", creds)
	if err != nil {
		fatalf("register: %v", err)
	}
	if st != http.StatusCreated {
		fatalf("register: status %d, want 201", st)
	}
	c.logf("registered %s", *email)

	// Step 2: login.
	st, body, err := c.post("/login", creds)
	if err != nil {
		fatalf("login: %v", err)
	}
	if st != http.StatusOK {
		fatalf("login: status %d, want 200", st)
	}
	var first loginData
	if err := json.Unmarshal(body.Data, &first); err != nil {
		fatalf("login: decode data: %v", err)
	}
	if first.AccessToken == "" || first.RefreshToken == "" {
		fatalf("login: missing tokens in response")
	}
	c.logf("logged in")

	// Step 3: current-user.
	st, body, err = c.get("/current-user", first.AccessToken)
	if err != nil {
		fatalf("current-user: %v", err)
	}
	if st != http.StatusOK {
		fatalf("current-user: status %d, want 200", st)
	}
	c.logf("current-user ok: %s", body.Message)

	// Step 4: refresh rotation.
	st, body, err = c.post("/refresh-token", map[string]string{"refreshToken": first.RefreshToken})
	if err != nil {
		fatalf("refresh: %v", err)
	}
	if st != http.StatusOK {
		fatalf("refresh: status %d, want 200", st)
	}
	var rotated loginData
	if err := json.Unmarshal(body.Data, &rotated); err != nil {
		fatalf("refresh: decode data: %v", err)
	}
	if rotated.RefreshToken == "" || rotated.RefreshToken == first.RefreshToken {
		fatalf("refresh: token was not rotated")
	}
	c.logf("refresh rotated")

	// Step 5: replaying the consumed token must fail.
	st, _, err = c.post("/refresh-token", map[string]string{"refreshToken": first.RefreshToken})
	if err != nil {
		fatalf("refresh replay: %v", err)
	}
	if st != http.StatusForbidden {
		fatalf("refresh replay: status %d, want 403", st)
	}
	c.logf("replay rejected")

	// Step 6: logout, then the rotated token must fail too.
	st, _, err = c.postAuth("/logout", nil, rotated.AccessToken)
	if err != nil {
		fatalf("logout: %v", err)
	}
	if st != http.StatusOK {
		fatalf("logout: status %d, want 200", st)
	}
	st, _, err = c.post("/refresh-token", map[string]string{"refreshToken": rotated.RefreshToken})
	if err != nil {
		fatalf("refresh after logout: %v", err)
	}
	if st != http.StatusForbidden {
		fatalf("refresh after logout: status %d, want 403", st)
	}
	c.logf("logout revoked the session")

	fmt.Println("auth smoke: OK")
}

type smokeClient struct {
	base    string
	http    *http.Client
	verbose bool
}

func (c *smokeClient) post(path string, payload any) (int, envelope, error) {
	return c.postAuth(path, payload, "")
}

func (c *smokeClient) postAuth(path string, payload any, accessToken string) (int, envelope, error) {
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, envelope{}, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(http.MethodPost, c.base+path, rd)
	if err != nil {
		return 0, envelope{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req)
}

func (c *smokeClient) get(path, accessToken string) (int, envelope, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return 0, envelope{}, err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req)
}

func (c *smokeClient) do(req *http.Request) (int, envelope, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer func() { _ = res.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&env); err != nil {
		return res.StatusCode, envelope{}, fmt.Errorf("decode response: %w", err)
	}
	return res.StatusCode, env, nil
}

func (c *smokeClient) logf(format string, args ...any) {
	if c.verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "auth smoke: "+format+"\n", args...)
	os.Exit(1)
}
