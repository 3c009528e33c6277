// densityctl：运维命令行，直接连库执行评分、批量评分、清理旧上报与建表
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"density-api/internal/density"
	"density-api/internal/logger"
	"density-api/internal/migrate"
	"density-api/internal/store"
	"density-api/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	logger.Setup()

	rootCmd := &cobra.Command{
		Use:          "densityctl",
		Short:        "Operate the crowd density store and scoring engine",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(scoreCmd(), bulkCmd(), pruneCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return store.AttachDB(db), nil
}

func newEngine(st *store.Store) (*density.Engine, error) {
	p, err := density.ParamsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("density params: %w", err)
	}
	return density.NewEngine(st, p), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scoreCmd：单地点时间衰减评分，输出 {level, sample}
func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <place_id>",
		Short: "Score one place from its recent reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			eng, err := newEngine(st)
			if err != nil {
				return err
			}
			res, err := eng.ScorePlace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// bulkCmd：批量邻域评分
// 背景：地点列表来自文件或标准输入，与 HTTP 批量接口使用同一引擎与校验。
func bulkCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Score a batch of places with neighborhood smoothing",
		Long: `Read {"places":[{"id","lat","lng"}]} or a bare array of places and print
the level of every place.

Examples:
  densityctl bulk --file places.json
  cat places.json | densityctl bulk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open places file: %w", err)
				}
				defer f.Close()
				r = f
			}
			ps, err := decodePlaces(r)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			eng, err := newEngine(st)
			if err != nil {
				return err
			}
			out, err := eng.ScoreBulk(cmd.Context(), ps)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "places JSON file (default stdin)")
	return cmd
}

type inputPlace struct {
	ID  string   `json:"id"`
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// 文档注释：解析地点列表
// 背景：兼容 {"places":[...]} 与裸数组两种形态。
// 约束：缺少 lat 或 lng 的地点直接报错，不按 (0,0) 处理。
func decodePlaces(r io.Reader) ([]density.Place, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read places: %w", err)
	}
	var wrapped struct {
		Places []inputPlace `json:"places"`
	}
	var raw []inputPlace
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Places != nil {
		raw = wrapped.Places
	} else if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	out := make([]density.Place, 0, len(raw))
	for i, p := range raw {
		if p.Lat == nil || p.Lng == nil {
			return nil, fmt.Errorf("place %d (%q): %w", i, p.ID, density.ErrInvalidLocation)
		}
		out = append(out, density.Place{ID: p.ID, Lat: *p.Lat, Lng: *p.Lng})
	}
	return out, nil
}

// pruneCmd：删除早于保留窗口的上报
// 约束：保留窗口不得短于当前生效（含环境变量覆盖）的评分回看窗口，否则会删掉仍在参与评分的数据。
func pruneCmd() *cobra.Command {
	var olderThan time.Duration
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete reports older than a retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			p, err := density.ParamsFromEnv()
			if err != nil {
				return fmt.Errorf("density params: %w", err)
			}
			if olderThan < p.LookbackWindow {
				return fmt.Errorf("--older-than %s is shorter than the scoring lookback %s", olderThan, p.LookbackWindow)
			}
			cutoff := time.Now().Add(-olderThan)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would delete reports created before %s\n", cutoff.Format(time.RFC3339))
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			n, err := st.PruneBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("prune: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d reports created before %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "retention window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the cutoff without deleting")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := migrate.EnsureSchema(st.DB()); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ok")
			return nil
		},
	}
}
