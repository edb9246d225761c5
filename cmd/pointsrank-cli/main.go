// Command pointsrank-cli is a small admin tool over the points HTTP API.
//
// Examples:
//
//	pointsrank-cli add-points -user alice -delta 100 -reason 'Completed a job'
//	pointsrank-cli rank -user alice
//	pointsrank-cli history -user alice -limit 5
//	pointsrank-cli top -n 10
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	sdk "pointsrank/sdk/go"
)

// clientFlags are shared connection flags registered by every command.
type clientFlags struct {
	addr   string
	apiKey string
}

func (c *clientFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", envOr("POINTSRANK_ADDR", "http://localhost:8080/api"), "API base URL")
	f.StringVar(&c.apiKey, "api-key", os.Getenv("POINTSRANK_API_KEY"), "API key, if the server requires one")
}

func (c *clientFlags) client() (*sdk.Client, error) {
	var opts []sdk.Option
	if c.apiKey != "" {
		opts = append(opts, sdk.WithAPIKey(c.apiKey))
	}
	return sdk.NewClient(c.addr, opts...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}

type addPointsCmd struct {
	clientFlags
	user   string
	delta  int64
	reason string
}

func (*addPointsCmd) Name() string     { return "add-points" }
func (*addPointsCmd) Synopsis() string { return "apply a points delta to a user" }
func (*addPointsCmd) Usage() string {
	return "add-points -user <id> -delta <n> -reason <text>:\n  Apply a points delta and print the rank transition.\n"
}

func (c *addPointsCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.user, "user", "", "user id")
	f.Int64Var(&c.delta, "delta", 0, "points delta (may be negative)")
	f.StringVar(&c.reason, "reason", "", "ledger reason")
}

func (c *addPointsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	res, err := client.AddPoints(ctx, c.user, c.delta, c.reason)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s: %d -> %d points", c.user, res.OldPoints, res.NewPoints)
	if res.RankChanged() {
		fmt.Printf(" (%s -> %s)", res.OldRank, res.NewRank)
	} else {
		fmt.Printf(" (%s)", res.NewRank)
	}
	fmt.Println()
	return subcommands.ExitSuccess
}

type loginBonusCmd struct {
	clientFlags
	user string
}

func (*loginBonusCmd) Name() string     { return "login-bonus" }
func (*loginBonusCmd) Synopsis() string { return "claim the daily login bonus for a user" }
func (*loginBonusCmd) Usage() string {
	return "login-bonus -user <id>:\n  Claim the daily login bonus. Refused if already claimed today (UTC).\n"
}

func (c *loginBonusCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.user, "user", "", "user id")
}

func (c *loginBonusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	res, err := client.LoginBonus(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	if res.Granted {
		fmt.Printf("granted: %s now has %d points (%s)\n", c.user, res.Points, res.Rank)
	} else {
		fmt.Printf("already claimed today: %s has %d points (%s)\n", c.user, res.Points, res.Rank)
	}
	return subcommands.ExitSuccess
}

type rankCmd struct {
	clientFlags
	user string
}

func (*rankCmd) Name() string     { return "rank" }
func (*rankCmd) Synopsis() string { return "show a user's points, rank and next-rank progress" }
func (*rankCmd) Usage() string {
	return "rank -user <id>:\n  Show current points, rank, and distance to the next rank.\n"
}

func (c *rankCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.user, "user", "", "user id")
}

func (c *rankCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	score, err := client.GetUser(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s: %d points, %s\n", score.UserID, score.Points, score.Rank)
	if score.Progress.PointsNeeded > 0 {
		fmt.Printf("next rank: %s in %d points\n", score.Progress.NextRank, score.Progress.PointsNeeded)
	} else {
		fmt.Println("top rank reached")
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	clientFlags
	user  string
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show recent activity for a user" }
func (*historyCmd) Usage() string {
	return "history -user <id> [-limit <n>]:\n  Show the newest activity ledger entries.\n"
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.user, "user", "", "user id")
	f.IntVar(&c.limit, "limit", 10, "max entries")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	entries, err := client.Activity(ctx, c.user, c.limit)
	if err != nil {
		return fail(err)
	}
	if len(entries) == 0 {
		fmt.Println("no activity")
		return subcommands.ExitSuccess
	}
	for _, e := range entries {
		fmt.Printf("%s  %+d  %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Points, e.Reason)
	}
	return subcommands.ExitSuccess
}

type topCmd struct {
	clientFlags
	n int
}

func (*topCmd) Name() string     { return "top" }
func (*topCmd) Synopsis() string { return "show the leaderboard" }
func (*topCmd) Usage() string {
	return "top [-n <count>]:\n  Show the top users by points.\n"
}

func (c *topCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.n, "n", 10, "number of entries")
}

func (c *topCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	entries, err := client.Leaderboard(ctx, c.n)
	if err != nil {
		return fail(err)
	}
	for _, e := range entries {
		fmt.Printf("%3d. %-20s %8d  %s\n", e.Position, e.UserID, e.Points, e.Rank)
	}
	return subcommands.ExitSuccess
}

type healthCmd struct {
	clientFlags
}

func (*healthCmd) Name() string     { return "health" }
func (*healthCmd) Synopsis() string { return "probe the server health endpoint" }
func (*healthCmd) Usage() string {
	return "health:\n  Probe /healthz and print the status.\n"
}

func (c *healthCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *healthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.client()
	if err != nil {
		return fail(err)
	}
	health, err := client.Health(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Println(health.Status)
	if health.Status != "healthy" {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&addPointsCmd{}, "points")
	subcommands.Register(&loginBonusCmd{}, "points")
	subcommands.Register(&rankCmd{}, "points")
	subcommands.Register(&historyCmd{}, "points")
	subcommands.Register(&topCmd{}, "points")
	subcommands.Register(&healthCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
