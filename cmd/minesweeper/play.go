package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper/internal/app"
	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/term"
)

var (
	playSlot   string
	playPolicy mines.StartPolicy
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play in the terminal. The game is saved after every move and resumed
on the next run. Passing any game flag starts a new game.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if appConfig.Store.Driver == "memory" {
			appConfig.Store.Driver = "file"
		}
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			appConfig.Store.Dir = dir
		}
		slots, closeStore, err := app.OpenStore(ctx, log, appConfig.Store, migrations)
		if err != nil {
			return err
		}
		defer closeStore()

		params, err := appConfig.GameParams()
		if err != nil {
			return err
		}
		games := game.NewService(log, slots, game.WithDefaults(params))

		flags := cmd.Flags()
		if flags.Changed("difficulty") || flags.Changed("size") ||
			flags.Changed("mines") || flags.Changed("policy") {
			difficulty, _ := flags.GetString("difficulty")
			size, _ := flags.GetInt("size")
			mineCount, _ := flags.GetInt("mines")
			d, err := mines.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			if !flags.Changed("size") {
				size = params.Size
			}
			if !flags.Changed("mines") && d == params.Difficulty {
				mineCount = params.MineCount
			}
			if !flags.Changed("policy") {
				playPolicy = params.Policy
			}
			next, err := mines.NewGameParams(d, size, mineCount)
			if err != nil {
				return err
			}
			next.Policy = playPolicy
			if _, err := games.Reset(ctx, playSlot, next); err != nil {
				return err
			}
		}

		return term.New(log, games, playSlot, os.Stdin, os.Stdout).Run(ctx)
	},
}

func init() {
	flags := playCmd.Flags()
	flags.StringVar(&playSlot, "slot", "local", "Save slot name")
	flags.String("dir", "", "Directory for the file store, overrides the config")
	flags.StringP("difficulty", "d", string(mines.Easy), "easy, medium, hard or custom")
	flags.IntP("size", "s", 10, "Field size, custom difficulty only")
	flags.IntP("mines", "m", mines.DefaultMineCount, "Number of mines")
	flags.Var(&playPolicy, "policy", `Start policy, controlling the first reveal.
classic: only the revealed cell is kept free of mines
safe: the revealed cell and its neighbours are kept free of mines when they fit`)
}
