package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/vancomm/minesweeper/internal/mines"
)

type Duration struct{ time.Duration }

// [Duration] implements [yaml.Unmarshaler]
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		d.Duration, err = time.ParseDuration(s)
		return err
	}
	var n int64
	if err := unmarshal(&n); err != nil {
		return errors.New("invalid duration")
	}
	d.Duration = time.Duration(n)
	return nil
}

type Store struct {
	Driver      string   `yaml:"driver"` // memory, file, postgres or redis
	Dir         string   `yaml:"dir"`
	RedisPrefix string   `yaml:"redis_prefix"`
	RedisTTL    Duration `yaml:"redis_ttl"`
}

type Game struct {
	Difficulty string `yaml:"difficulty"`
	Size       int    `yaml:"size"` // custom difficulty only
	MineCount  int    `yaml:"mine_count"`
	Policy     string `yaml:"policy"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// App holds the settings that are not secrets: store selection, game
// defaults and logging. Secrets stay in env variables.
type App struct {
	Addr  string `yaml:"addr"`
	Store Store  `yaml:"store"`
	Game  Game   `yaml:"game"`
	Log   Log    `yaml:"log"`
}

func defaultApp() *App {
	return &App{
		Addr:  ":8080",
		Store: Store{Driver: "memory", Dir: "saves", RedisPrefix: "minesweeper:"},
		Game: Game{
			Difficulty: string(mines.Easy),
			MineCount:  mines.DefaultMineCount,
			Policy:     mines.ExcludeCell.String(),
		},
		Log: Log{Level: "info"},
	}
}

// LoadApp reads .env (if present), then the YAML file at path (if path is
// not empty), then applies env overrides.
func LoadApp(path string) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	app := defaultApp()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, app); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}

	if port, ok := os.LookupEnv("APP_PORT"); ok {
		app.Addr = port
	}
	overrides := map[string]*string{
		"STORE_DRIVER":    &app.Store.Driver,
		"STORE_DIR":       &app.Store.Dir,
		"REDIS_PREFIX":    &app.Store.RedisPrefix,
		"GAME_DIFFICULTY": &app.Game.Difficulty,
		"GAME_POLICY":     &app.Game.Policy,
		"LOG_LEVEL":       &app.Log.Level,
		"LOG_FILE":        &app.Log.File,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}
	if v, ok := os.LookupEnv("GAME_MINE_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("unable to convert GAME_MINE_COUNT to int: %w", err)
		}
		app.Game.MineCount = n
	}
	if v, ok := os.LookupEnv("GAME_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("unable to convert GAME_SIZE to int: %w", err)
		}
		app.Game.Size = n
	}
	if v, ok := os.LookupEnv("REDIS_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("unable to parse REDIS_TTL: %w", err)
		}
		app.Store.RedisTTL = Duration{ttl}
	}

	if _, err := app.GameParams(); err != nil {
		return nil, err
	}
	return app, nil
}

// GameParams returns the params new slots start with.
func (a *App) GameParams() (mines.GameParams, error) {
	d, err := mines.ParseDifficulty(a.Game.Difficulty)
	if err != nil {
		return mines.GameParams{}, err
	}
	params, err := mines.NewGameParams(d, a.Game.Size, a.Game.MineCount)
	if err != nil {
		return mines.GameParams{}, err
	}
	if err := params.Policy.Set(a.Game.Policy); err != nil {
		return mines.GameParams{}, err
	}
	return params, nil
}
