// Package web provides the seatbook web server: routing, templates, the cookie
// session and the per-request store connection.
package web

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/util/common"
	"github.com/seatbook/seatbook/util/random"
	"github.com/seatbook/seatbook/web/controller"
	"github.com/seatbook/seatbook/web/form"
	"github.com/seatbook/seatbook/web/locale"
	"github.com/seatbook/seatbook/web/middleware"
	"github.com/seatbook/seatbook/web/reqctx"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/hkdf"
	"gorm.io/gorm"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

// wrapAssetsFileInfo reports the process start as modification time, so
// embedded assets still get Last-Modified caching.
type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server is the web application. The template engine, the translations and the
// connection pool are built once here and handed to the request pipeline.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db        *gorm.DB
	pool      *database.Pool
	bundle    *locale.Bundle
	validator *form.Validator
	lifetime  time.Duration

	index *controller.IndexController
	page  *controller.PageController
	api   *controller.APIController

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(db *gorm.DB) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{db: db, ctx: ctx, cancel: cancel}
}

// getHtmlFiles lists the templates under web/html on disk. Used only in debug mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded templates.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(htmlFS, "html/*.html")
}

// sessionKeys derives the cookie signing and encryption keys from secret. An
// empty secret gets a random one, so cookies do not survive a restart.
func sessionKeys(secret string) (authKey, encKey []byte, err error) {
	if secret == "" {
		logger.Warning("SEATBOOK_SESSION_SECRET is not set, sessions will not survive a restart")
		secret = random.Seq(64)
	}
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(config.GetName()), []byte("session cookie"))
	authKey = make([]byte, 32)
	encKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, nil, err
	}
	return authKey, encKey, nil
}

func (s *Server) init() error {
	var err error
	if s.pool == nil {
		s.pool, err = database.NewPool(s.db, config.GetDatabaseConfig().Pool.AcquireTimeout)
		if err != nil {
			return err
		}
	}
	if s.bundle, err = locale.NewBundle(i18nFS, config.GetLang()); err != nil {
		return err
	}
	if s.validator, err = form.NewValidator(config.GetNameScripts()...); err != nil {
		return err
	}
	if s.lifetime, err = config.GetSessionLifetime(); err != nil {
		return err
	}
	return nil
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := s.init(); err != nil {
		return nil, err
	}

	engine := gin.Default()
	engine.Use(middleware.RequestIDMiddleware())

	if domain := config.GetDomain(); domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(domain))
	}

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/"}),
	))

	authKey, encKey, err := sessionKeys(config.GetSessionSecret())
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(config.GetSessionCookieMaxAge().Seconds()),
		Secure:   config.IsSecureCookie(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(config.GetSessionCookieName(), store))
	engine.Use(s.bundle.Middleware())

	funcMap := template.FuncMap{"i18n": locale.Localize}
	engine.SetFuncMap(funcMap)

	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	engine.GET("/health", s.health)

	// everything below works on a pooled connection
	g := engine.Group("/", reqctx.Middleware(s.pool, controller.RenderError))
	s.page = controller.NewPageController(g)
	s.index = controller.NewIndexController(g, s.validator, s.lifetime)
	s.api = controller.NewAPIController(g)

	engine.NoRoute(func(c *gin.Context) {
		controller.RenderError(c, database.ErrNotFound)
	})

	return engine, nil
}

// health reports whether the store answers.
func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Warning("health check:", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	stats := s.pool.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.GetVersion(),
		"pool": gin.H{
			"open":  stats.OpenConnections,
			"inUse": stats.InUse,
			"idle":  stats.Idle,
		},
	})
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer common.Recover("web server")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	return nil
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop() error {
	defer s.cancel()
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			err2 = err
		}
	}
	return common.Combine(err1, err2)
}
