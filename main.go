package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deal-scout/pkg/auth"
	"deal-scout/pkg/cache"
	"deal-scout/pkg/config"
	"deal-scout/pkg/logger"
	"deal-scout/pkg/search"
	"deal-scout/pkg/upstream"
)

func main() {
	cfg := config.LoadOrEnv(os.Getenv("CONFIG_PATH"))
	log := logger.New(cfg.Logging)

	client := upstream.New(cfg.Ebay.Timeout(), cfg.Ebay.Host())
	identity := auth.NewIdentityClient(client, cfg.Ebay.TokenURL())
	tokens := auth.NewTokenCache(auth.Credentials{
		ClientID:     cfg.Ebay.ClientID,
		ClientSecret: cfg.Ebay.ClientSecret,
		RefreshToken: cfg.Ebay.RefreshToken,
		Scope:        cfg.Ebay.Scope,
	}, identity)

	if cfg.Ebay.ClientID == "" || cfg.Ebay.ClientSecret == "" {
		log.Warn().Msg("EBAY_CLIENT_ID or EBAY_CLIENT_SECRET not set, searches will fail until configured")
	} else if cfg.Ebay.RefreshToken != "" {
		log.Info().Msg("Using refresh_token grant")
	}

	var resultCache search.ResultCache
	if cfg.Cache.TTLMinutes > 0 {
		c, err := cache.New(cfg.Cache.DatabasePath, cfg.Cache.TTL())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
		defer c.Close()
		resultCache = c
		log.Info().Str("path", cfg.Cache.DatabasePath).Int("ttl_minutes", cfg.Cache.TTLMinutes).Msg("Cache initialized")
	}

	searcher := search.NewService(search.Config{
		SearchURL:     cfg.Ebay.SearchURL(),
		MarketplaceID: cfg.Ebay.MarketplaceID,
		DefaultLimit:  cfg.Ebay.DefaultLimit,
	}, tokens, client, resultCache)

	s := &server{
		search:   searcher,
		identity: identity,
		ebay:     cfg.Ebay,
		log:      log,
		timeout:  cfg.Server.RequestTimeout(),
	}

	port := cfg.Server.Port
	if ip := GetOutboundIP(); ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s/api/search?q=...\n", port)
	fmt.Printf("API Docs: http://localhost:%s/\n", port)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP
}
