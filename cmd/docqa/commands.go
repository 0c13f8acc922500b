package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/loadtest"
	"docqa/internal/perflog"
	"docqa/internal/report"
	"docqa/internal/tui"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <document>",
		Short: "Analyze a document and open the interactive question session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			svc, err := reg.Service()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Analizando el artículo...")
			rep, err := svc.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "¡Artículo analizado correctamente en %.2f segundos!\n", rep.Elapsed.Seconds())

			m := tui.New(cmd.Context(), svc, reg.Feedback(), reg.PerfLogger().Path(), rep.Document.Title, rep.Summary)
			return tui.Run(m)
		},
	}
}

func askCmd() *cobra.Command {
	var useful string
	cmd := &cobra.Command{
		Use:   "ask <document> <question>",
		Short: "Answer one question about a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var helpful *bool
			switch strings.ToLower(useful) {
			case "":
			case "yes", "si", "sí":
				v := true
				helpful = &v
			case "no":
				v := false
				helpful = &v
			default:
				return fmt.Errorf("--useful must be yes or no, got %q", useful)
			}

			reg, cleanup, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			svc, err := reg.Service()
			if err != nil {
				return err
			}
			if _, err := svc.Ingest(cmd.Context(), args[0]); err != nil {
				return err
			}
			answer, err := svc.Ask(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printAnswer(cmd, answer)

			if helpful != nil {
				if err := reg.Feedback().Record(answer.Question, answer.Text, *helpful); err != nil {
					return fmt.Errorf("error guardando la interacción: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Interacción guardada en: %s\n", reg.Feedback().Path())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&useful, "useful", "", "record whether the answer was useful (yes|no)")
	return cmd
}

func printAnswer(cmd *cobra.Command, a domain.Answer) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Respuesta:\n%s\n\n", a.Text)
	fmt.Fprintf(out, "Confianza: %.1f%%\n", a.Confidence)
	fmt.Fprintf(out, "Tiempo de Respuesta: %.2fs\n", a.Elapsed.Seconds())
	for i, s := range a.Sources {
		text := strings.Join(strings.Fields(s.Chunk.Text), " ")
		if r := []rune(text); len(r) > 160 {
			text = string(r[:160]) + "…"
		}
		fmt.Fprintf(out, "\n[%d] score=%.3f %s", i+1, s.Score, text)
	}
	fmt.Fprintln(out)
}

func metricsCmd() *cobra.Command {
	var format, file string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show average processing and response times from the performance log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			if file == "" {
				file = reg.Config().Storage.PerformanceLog
			}
			stats, err := perflog.Aggregate(file)
			if err != nil {
				return err
			}
			d := report.Build(stats)
			switch format {
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), d.Render())
			case "json":
				data, err := d.JSON()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	cmd.Flags().StringVar(&file, "file", "", "performance log to read (default from config)")
	return cmd
}

func loadtestCmd() *cobra.Command {
	var (
		iterations  int
		concurrency int
		questions   []string
	)
	cmd := &cobra.Command{
		Use:   "loadtest <document>",
		Short: "Ask questions repeatedly against a processed document and report timings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			svc, err := reg.LoadTestService()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== INICIANDO PRUEBAS DE CARGA ===")
			if _, err := svc.Ingest(cmd.Context(), args[0]); err != nil {
				return err
			}

			results := reg.LoadTestPerfLogger()
			rep, runErr := loadtest.Run(cmd.Context(), svc, loadtest.Config{
				Questions:   questions,
				Iterations:  iterations,
				Concurrency: concurrency,
				Perf:        results,
				Log:         reg.Logger(),
				OnResult: func(r loadtest.Result) {
					if r.Err != nil {
						fmt.Fprintf(out, "Iteración %d - %s: error: %v\n", r.Iteration, r.Question, r.Err)
						return
					}
					fmt.Fprintf(out, "Iteración %d - %s: %.2f segundos\n", r.Iteration, r.Question, r.Elapsed.Seconds())
				},
			})

			fmt.Fprintln(out, "\n=== RESULTADOS FINALES ===")
			fmt.Fprintf(out, "Total de iteraciones: %d\n", rep.Iterations)
			fmt.Fprintf(out, "Total de consultas: %d\n", rep.Queries)
			fmt.Fprintf(out, "Consultas fallidas: %d\n", rep.Failures)
			fmt.Fprintf(out, "Tiempo promedio: %.2f segundos\n", rep.Mean.Seconds())
			fmt.Fprintf(out, "Tiempo máximo: %.2f segundos\n", rep.Max.Seconds())
			fmt.Fprintf(out, "Tiempo mínimo: %.2f segundos\n", rep.Min.Seconds())
			fmt.Fprintf(out, "Resultados guardados en: %s\n", results.Path())
			return runErr
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 5, "times each question is asked")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "queries in flight at once")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to ask (repeatable; defaults to the standard set)")
	return cmd
}
