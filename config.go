package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind    string
	port    int
	prefix  string
	profile bool
	tlsCert string
	tlsKey  string
	verbose bool
	version bool

	matchTime    time.Duration
	roundTime    time.Duration
	maxRounds    int
	winThreshold int
	minQuestions int
	startDelay   time.Duration
	roundDelay   time.Duration
	disposeGrace time.Duration
	idleTimeout  time.Duration
	questions    string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxRounds < 1 {
		return fmt.Errorf("invalid round cap (must be at least 1): %d", c.maxRounds)
	}
	if c.winThreshold < 1 {
		return fmt.Errorf("invalid win threshold (must be at least 1): %d", c.winThreshold)
	}
	if c.minQuestions < c.maxRounds {
		return fmt.Errorf("minimum questions per subject (%d) cannot be lower than the round cap (%d)", c.minQuestions, c.maxRounds)
	}
	if c.matchTime < time.Second || c.roundTime < time.Second {
		return errors.New("match and round times must be at least one second")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZDUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quizduel",
		Short:         "A two-player timed quiz duel, played round by round over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZDUEL_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: QUIZDUEL_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: QUIZDUEL_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: QUIZDUEL_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: QUIZDUEL_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: QUIZDUEL_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: QUIZDUEL_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: QUIZDUEL_VERSION)")

	fs.DurationVar(&cfg.matchTime, "match-time", 14*time.Minute, "wall-clock budget for a whole match (env: QUIZDUEL_MATCH_TIME)")
	fs.DurationVar(&cfg.roundTime, "round-time", 2*time.Minute, "wall-clock budget for a single round (env: QUIZDUEL_ROUND_TIME)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 4, "maximum rounds per match (env: QUIZDUEL_MAX_ROUNDS)")
	fs.IntVar(&cfg.winThreshold, "win-threshold", 3, "round wins needed to end the match early (env: QUIZDUEL_WIN_THRESHOLD)")
	fs.IntVar(&cfg.minQuestions, "min-questions", 7, "questions required before a subject is offered (env: QUIZDUEL_MIN_QUESTIONS)")
	fs.DurationVar(&cfg.startDelay, "start-delay", 3*time.Second, "pause between the room filling and round 1 (env: QUIZDUEL_START_DELAY)")
	fs.DurationVar(&cfg.roundDelay, "round-delay", 5*time.Second, "pause between a round result and the next question (env: QUIZDUEL_ROUND_DELAY)")
	fs.DurationVar(&cfg.disposeGrace, "dispose-grace", time.Minute, "time a finished room remains queryable (env: QUIZDUEL_DISPOSE_GRACE)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", time.Hour, "time before abandoned waiting rooms are reaped (env: QUIZDUEL_IDLE_TIMEOUT)")
	fs.StringVar(&cfg.questions, "questions", "", "path to a JSON question bank replacing the embedded one (env: QUIZDUEL_QUESTIONS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizduel v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
