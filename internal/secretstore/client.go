// Package secretstore reads database credentials from an Azure Key Vault
// secret whose value is a JSON document.
package secretstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/tidwall/gjson"

	"github.com/fastfood-labs/order_service/internal/platform/database"
)

const (
	defaultTimeout = 15 * time.Second
	apiVersion     = "7.4"
	vaultScope     = "https://vault.azure.net/.default"
	moduleName     = "secretstore"
	moduleVersion  = "v1.0.0"
)

// Config configures the Key Vault client.
type Config struct {
	// VaultURL is the vault base URL (e.g. https://fastfood.vault.azure.net).
	VaultURL string
	// SecretName names the secret holding the credentials document.
	SecretName string
	// Credential authenticates against the vault. When nil the default Azure
	// credential chain is used.
	Credential azcore.TokenCredential
	// Transport overrides the HTTP transport.
	Transport policy.Transporter
	// Timeout bounds a single fetch. Zero means 15s.
	Timeout time.Duration
}

// KeyVault fetches credentials from one Key Vault secret.
type KeyVault struct {
	endpoint string
	timeout  time.Duration
	pipeline runtime.Pipeline
}

// New validates cfg and builds the authenticated pipeline.
func New(cfg Config) (*KeyVault, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.VaultURL), "/")
	if base == "" {
		return nil, fmt.Errorf("secretstore: VaultURL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("secretstore: VaultURL must be a valid URL")
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("secretstore: VaultURL must use https")
	}
	if parsed.User != nil {
		return nil, fmt.Errorf("secretstore: VaultURL must not include user info")
	}
	name := strings.TrimSpace(cfg.SecretName)
	if name == "" {
		return nil, fmt.Errorf("secretstore: SecretName is required")
	}

	cred := cfg.Credential
	if cred == nil {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("secretstore: default credential: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var opts policy.ClientOptions
	if cfg.Transport != nil {
		opts.Transport = cfg.Transport
	}
	auth := runtime.NewBearerTokenPolicy(cred, []string{vaultScope}, nil)
	pipeline := runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{
		PerRetry: []policy.Policy{auth},
	}, &opts)

	endpoint := base + "/secrets/" + url.PathEscape(name) + "?api-version=" + apiVersion
	return &KeyVault{endpoint: endpoint, timeout: timeout, pipeline: pipeline}, nil
}

// FetchCredentials reads the secret and decodes the credentials document.
func (k *KeyVault) FetchCredentials(ctx context.Context) (database.Credentials, error) {
	if k == nil {
		return database.Credentials{}, fmt.Errorf("secretstore: client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	req, err := runtime.NewRequest(ctx, http.MethodGet, k.endpoint)
	if err != nil {
		return database.Credentials{}, fmt.Errorf("secretstore: create request: %w", err)
	}
	req.Raw().Header.Set("Accept", "application/json")

	resp, err := k.pipeline.Do(req)
	if err != nil {
		return database.Credentials{}, fmt.Errorf("secretstore: execute request: %w", err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return database.Credentials{}, fmt.Errorf("secretstore: %w", runtime.NewResponseError(resp))
	}
	body, err := runtime.Payload(resp)
	if err != nil {
		return database.Credentials{}, fmt.Errorf("secretstore: read response: %w", err)
	}
	return ParseCredentials(body)
}

// ParseCredentials decodes a Key Vault secret bundle whose value is a JSON
// object with host, port, database (or dbname), username and password.
func ParseCredentials(bundle []byte) (database.Credentials, error) {
	if !gjson.ValidBytes(bundle) {
		return database.Credentials{}, fmt.Errorf("secretstore: response is not JSON")
	}
	value := gjson.GetBytes(bundle, "value")
	if !value.Exists() || !gjson.Valid(value.String()) {
		return database.Credentials{}, fmt.Errorf("secretstore: secret value is not a JSON document")
	}

	doc := gjson.Parse(value.String())
	dbName := doc.Get("database")
	if !dbName.Exists() {
		dbName = doc.Get("dbname")
	}
	creds := database.Credentials{
		Host:     doc.Get("host").String(),
		Port:     int(doc.Get("port").Int()),
		Database: dbName.String(),
		Username: doc.Get("username").String(),
		Password: doc.Get("password").String(),
	}

	var missing []string
	if creds.Host == "" {
		missing = append(missing, "host")
	}
	if creds.Port <= 0 {
		missing = append(missing, "port")
	}
	if creds.Database == "" {
		missing = append(missing, "database")
	}
	if creds.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return database.Credentials{}, fmt.Errorf("secretstore: secret missing %s", strings.Join(missing, ", "))
	}
	return creds, nil
}
