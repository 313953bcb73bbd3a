package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"arfs-go/internal/arfs"
	"arfs-go/internal/cache"
	"arfs-go/internal/client"
	"arfs-go/internal/config"
	"arfs-go/internal/encryption"
	"arfs-go/internal/gateway"
	"arfs-go/internal/keyring"
	"arfs-go/internal/store"
	"arfs-go/internal/wallet"
)

// ArFSApp is the application layer between the CLI and the client façade.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings, and closes the cache store on Close.
type ArFSApp struct {
	cfg       *config.Config
	store     arfs.Store
	encryptor arfs.Encryptor
	client    *client.Client
	logger    arfs.Logger
	logFile   *os.File
}

// NewArFSApp creates a fully wired ArFSApp from the given config.
// operation identifies the CLI command being run and tags every log line.
// The caller must call Close when done.
func NewArFSApp(ctx context.Context, cfg *config.Config, operation string) (*ArFSApp, error) {
	return newArFSApp(ctx, cfg, operation, nil, os.Stderr)
}

// newArFSApp wires the app around gw, or around an HTTP gateway built from
// cfg when gw is nil.
func newArFSApp(ctx context.Context, cfg *config.Config, operation string, gw arfs.Gateway, stderr io.Writer) (*ArFSApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID, level, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	st, err := store.NewStoreFromConfig(ctx, cfg.Cache)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating cache store: %w", err)
	}
	if err := st.ValidateSetup(ctx); err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("cache store not ready: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	if gw == nil {
		gw, err = gateway.New(gatewayOptions(cfg.Gateway, cache.NewPayloadCache(st, logger), logger))
		if err != nil {
			st.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating gateway client: %w", err)
		}
	}

	tags := arfs.NewTagSettings(cfg.App.Name, cfg.App.Version, cfg.App.ArFSVersion)
	c := client.New(gw, cache.NewClientCache(st, logger), logger, client.WithTagSettings(tags))

	return &ArFSApp{
		cfg:       cfg,
		store:     st,
		encryptor: enc,
		client:    c,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// gatewayOptions overlays the configured gateway settings on the defaults.
func gatewayOptions(cfg config.GatewayConfig, payload gateway.PayloadCache, logger arfs.Logger) gateway.Options {
	opts := gateway.DefaultOptions()
	if cfg.URL != "" {
		opts.URL = cfg.URL
	}
	if cfg.MaxRetries != nil {
		opts.MaxRetries = *cfg.MaxRetries
	}
	if cfg.InitialErrorDelayMS > 0 {
		opts.InitialErrorDelay = cfg.InitialErrorDelay()
	}
	if cfg.RateLimitCooldownMS > 0 {
		opts.RateLimitCooldown = cfg.RateLimitCooldown()
	}
	if len(cfg.FatalErrors) > 0 {
		opts.FatalErrors = cfg.FatalErrors
	}
	if len(cfg.ValidStatusCodes) > 0 {
		opts.ValidStatusCodes = cfg.ValidStatusCodes
	}
	if cfg.TimeoutMS > 0 {
		opts.HTTPClient = &http.Client{Timeout: cfg.Timeout()}
	}
	opts.Logger = logger
	opts.PayloadCache = payload
	return opts
}

// Client exposes the underlying façade for library-style use.
func (a *ArFSApp) Client() *client.Client {
	return a.client
}

// EntityRequest identifies one entity. Owner and DriveKey may be empty;
// a DriveKey selects the private variant.
type EntityRequest struct {
	ID       string
	Owner    string
	DriveKey string
	WithKeys bool
}

type parsedRequest struct {
	id    arfs.EntityID
	owner arfs.Address
	key   arfs.EntityKey
}

func (r EntityRequest) parse() (*parsedRequest, error) {
	id, err := arfs.ParseEntityID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing id: %w", err)
	}
	p := &parsedRequest{id: id}
	if r.Owner != "" {
		if p.owner, err = arfs.ParseAddress(r.Owner); err != nil {
			return nil, fmt.Errorf("parsing owner: %w", err)
		}
	}
	if r.DriveKey != "" {
		if p.key, err = arfs.ParseEntityKey(r.DriveKey); err != nil {
			return nil, fmt.Errorf("parsing drive key: %w", err)
		}
	}
	return p, nil
}

// DriveOwner returns the address that created the drive.
func (a *ArFSApp) DriveOwner(ctx context.Context, rawDriveID string) (arfs.Address, error) {
	id, err := arfs.ParseEntityID(rawDriveID)
	if err != nil {
		return "", fmt.Errorf("parsing drive id: %w", err)
	}
	return a.client.OwnerForDriveID(ctx, id)
}

// Drive returns a public drive, or a private one when a drive key is given.
func (a *ArFSApp) Drive(ctx context.Context, req EntityRequest) (*arfs.Drive, error) {
	p, err := req.parse()
	if err != nil {
		return nil, err
	}
	if p.key != nil {
		return a.client.PrivateDrive(ctx, p.id, p.owner, p.key, req.WithKeys)
	}
	return a.client.PublicDrive(ctx, p.id, p.owner)
}

// Folder returns a public folder, or a private one when a drive key is given.
func (a *ArFSApp) Folder(ctx context.Context, req EntityRequest) (*arfs.FileOrFolder, error) {
	p, err := req.parse()
	if err != nil {
		return nil, err
	}
	if p.key != nil {
		return a.client.PrivateFolder(ctx, p.id, p.owner, p.key, req.WithKeys)
	}
	return a.client.PublicFolder(ctx, p.id, p.owner)
}

// File returns a public file, or a private one when a drive key is given.
func (a *ArFSApp) File(ctx context.Context, req EntityRequest) (*arfs.FileOrFolder, error) {
	p, err := req.parse()
	if err != nil {
		return nil, err
	}
	if p.key != nil {
		return a.client.PrivateFile(ctx, p.id, p.owner, p.key, req.WithKeys)
	}
	return a.client.PublicFile(ctx, p.id, p.owner)
}

// ListFolder lists the tree below a folder. A drive key in req selects a
// private listing.
func (a *ArFSApp) ListFolder(ctx context.Context, req EntityRequest, maxDepth int, includeRoot bool) ([]*arfs.WithPaths, error) {
	p, err := req.parse()
	if err != nil {
		return nil, err
	}
	params := client.ListParams{
		FolderID:    p.id,
		MaxDepth:    maxDepth,
		IncludeRoot: includeRoot,
		Owner:       p.owner,
	}
	if p.key != nil {
		return a.client.ListPrivateFolder(ctx, params, p.key, req.WithKeys)
	}
	return a.client.ListPublicFolder(ctx, params)
}

// DrivesRequest describes a scan of every drive owned by Address.
type DrivesRequest struct {
	Address      string
	Password     string
	DriveKeys    []string
	AllRevisions bool

	// KeyringPassphrase unlocks the persisted keyring when UnlockKeyring
	// is set and keyring persistence is enabled.
	UnlockKeyring     bool
	KeyringPassphrase string
}

// Drives scans every drive of an address, decrypting the private ones it
// has keys for. With keyring persistence enabled and the keyring unlocked,
// keys that opened a drive are saved for later runs.
func (a *ArFSApp) Drives(ctx context.Context, req DrivesRequest) ([]*arfs.Drive, error) {
	address, err := arfs.ParseAddress(req.Address)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	kr, err := a.newKeyring(req)
	if err != nil {
		return nil, err
	}

	persist := a.cfg.Keyring.Persist && a.encryptor.IsConfigured()
	if persist && req.UnlockKeyring {
		dec, err := a.encryptor.Unlock(req.KeyringPassphrase)
		if err != nil {
			return nil, fmt.Errorf("unlocking keyring: %w", err)
		}
		n, err := kr.Load(ctx, a.store, dec)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("keyring loaded", "keys", n)
	}

	drives, err := a.client.AllDrivesForAddress(ctx, address, kr, !req.AllRevisions)
	if err != nil {
		return nil, err
	}

	// Saving without loading first would drop keys saved by earlier runs.
	if persist && req.UnlockKeyring && len(kr.Verified()) > 0 {
		if err := kr.Save(ctx, a.store, a.encryptor); err != nil {
			return nil, err
		}
	}
	return drives, nil
}

func (a *ArFSApp) newKeyring(req DrivesRequest) (*keyring.Keyring, error) {
	opts := keyring.Options{Password: req.Password, Logger: a.logger}
	for _, raw := range req.DriveKeys {
		key, err := arfs.ParseEntityKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing drive key: %w", err)
		}
		opts.DriveKeys = append(opts.DriveKeys, key)
	}
	if req.Password != "" {
		if a.cfg.Wallet.Path == "" {
			return nil, fmt.Errorf("a wallet path must be configured to use a password")
		}
		w, err := wallet.Load(a.cfg.Wallet.Path)
		if err != nil {
			return nil, fmt.Errorf("loading wallet: %w", err)
		}
		opts.Wallet = w
	}
	return keyring.New(opts)
}

// InitKeyring generates the key pair protecting the persisted keyring.
func (a *ArFSApp) InitKeyring(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// CacheSizes returns the number of entries in each cache bucket.
func (a *ArFSApp) CacheSizes(ctx context.Context) (map[string]int, error) {
	return cache.Sizes(ctx, a.store)
}

// ClearCache empties every cache bucket. The persisted keyring is kept.
func (a *ArFSApp) ClearCache(ctx context.Context) error {
	return cache.ClearAll(ctx, a.store)
}

// Close closes the cache store and the log file.
func (a *ArFSApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing cache store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
