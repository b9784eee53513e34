package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/humanbelnik/musicroom/internal/config"
	http_init "github.com/humanbelnik/musicroom/internal/delivery/http/init"
	http_session_middleware "github.com/humanbelnik/musicroom/internal/delivery/http/middleware/session"
	http_playback "github.com/humanbelnik/musicroom/internal/delivery/http/playback"
	http_room "github.com/humanbelnik/musicroom/internal/delivery/http/room"
	http_spotify "github.com/humanbelnik/musicroom/internal/delivery/http/spotify"
	ws_room "github.com/humanbelnik/musicroom/internal/delivery/ws/room"
	infra_memory "github.com/humanbelnik/musicroom/internal/infra/memory"
	infra_pg_init "github.com/humanbelnik/musicroom/internal/infra/postgres/init"
	infra_postgres_room "github.com/humanbelnik/musicroom/internal/infra/postgres/room"
	infra_postgres_vote "github.com/humanbelnik/musicroom/internal/infra/postgres/vote"
	infra_redis_init "github.com/humanbelnik/musicroom/internal/infra/redis/init"
	infra_redis_membership "github.com/humanbelnik/musicroom/internal/infra/redis/membership"
	infra_redis_token "github.com/humanbelnik/musicroom/internal/infra/redis/token"
	infra_spotify "github.com/humanbelnik/musicroom/internal/infra/spotify"
	"github.com/humanbelnik/musicroom/internal/service/poller"
	"github.com/humanbelnik/musicroom/internal/service/roomlock"
	usecase_membership "github.com/humanbelnik/musicroom/internal/usecase/membership"
	usecase_playback "github.com/humanbelnik/musicroom/internal/usecase/playback"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	usecase_vote "github.com/humanbelnik/musicroom/internal/usecase/vote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type storage struct {
	rooms       usecase_room.RoomRepository
	votes       usecase_vote.VoteRepository
	memberships usecase_membership.Store
	tokens      infra_spotify.TokenStore
	close       func()
}

func moduleLogger(name string) zerolog.Logger {
	return log.With().Str("module", name).Logger()
}

func openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	if cfg.Storage.Mode != config.StorageModePostgres {
		log.Warn().Msg("running with in-memory storage, state is lost on restart")
		return storage{
			rooms:       infra_memory.NewRoomStorage(),
			votes:       infra_memory.NewVoteStorage(),
			memberships: infra_memory.NewMembershipStorage(),
			tokens:      infra_memory.NewTokenStorage(),
			close:       func() {},
		}, nil
	}

	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	if err := infra_pg_init.Migrate(ctx, pgConn); err != nil {
		pgConn.Close()
		return storage{}, err
	}
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	membershipTTL := time.Duration(cfg.Session.MaxAge) * time.Second

	return storage{
		rooms:       infra_postgres_room.New(pgConn),
		votes:       infra_postgres_vote.New(pgConn),
		memberships: infra_redis_membership.New(redisConn, "membership", membershipTTL),
		tokens:      infra_redis_token.New(redisConn, "spotify_token"),
		close: func() {
			redisConn.Close()
			pgConn.Close()
		},
	}, nil
}

// Go wires the service and blocks until ctx is cancelled or the server fails.
func Go(ctx context.Context, cfg *config.Config) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	locker := roomlock.New()
	hub := ws_room.NewHub(ws_room.WithHubLogger(moduleLogger("ws")))

	roomUC := usecase_room.New(store.rooms, usecase_room.WithLogger(moduleLogger("room")))
	voteUC := usecase_vote.New(store.votes)
	membershipUC := usecase_membership.New(store.memberships, roomUC, voteUC, locker,
		usecase_membership.WithLogger(moduleLogger("membership")),
		usecase_membership.WithNotifier(hub),
	)

	spotify := infra_spotify.New(
		infra_spotify.NewOAuthConfig(cfg.Spotify),
		store.tokens,
		cfg.Spotify.APIBase,
		infra_spotify.WithLogger(moduleLogger("spotify")),
	)
	playbackUC := usecase_playback.New(roomUC, voteUC, spotify, locker,
		usecase_playback.WithLogger(moduleLogger("playback")),
		usecase_playback.WithNotifier(hub),
		usecase_playback.WithProviderTimeout(cfg.Playback.ProviderTimeout),
	)

	nowPlaying := poller.New(playbackUC, hub, hub,
		poller.WithLogger(moduleLogger("poller")),
		poller.WithInterval(cfg.Playback.PollInterval),
		poller.WithWorkers(cfg.Playback.PollWorkers),
	)

	controllerPool := http_init.NewControllerPool(cfg.HTTP.Mode,
		http_session_middleware.Sessions(cfg.Session),
		http_session_middleware.Identity(),
	)
	controllerPool.Add(http_room.New(roomUC, membershipUC, http_room.WithLogger(moduleLogger("http.room"))))
	controllerPool.Add(http_playback.New(playbackUC, membershipUC, http_playback.WithLogger(moduleLogger("http.playback"))))
	controllerPool.Add(http_spotify.New(spotify, cfg.Spotify.FrontendURL, http_spotify.WithLogger(moduleLogger("http.spotify"))))
	controllerPool.Add(ws_room.New(hub, roomUC, ws_room.WithLogger(moduleLogger("ws"))))
	controllerPool.Register()

	srv := controllerPool.Server(cfg.HTTP)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		nowPlaying.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Mode).Msg("musicroom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
