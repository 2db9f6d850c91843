package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hupe1980/gramstore"
)

func listHandler(cmd *cobra.Command, args []string) error {
	src, err := sourceFromFlags(cmd)
	if err != nil {
		return err
	}

	var prefix string
	if len(args) > 0 {
		prefix = args[0]
	}
	names, err := src.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func statsHandler(cmd *cobra.Command, args []string) error {
	m, err := modelFromFlags(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := train(cmd, m, args); err != nil {
		return err
	}
	printTopology(cmd.OutOrStdout(), m.Stats())
	return nil
}

func runHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	prompt, _ := flags.GetString("prompt")
	seed, _ := flags.GetUint64("seed")
	maxChars, _ := flags.GetInt("max-chars")
	pacing, _ := flags.GetDuration("pacing")
	showCandidates, _ := flags.GetBool("candidates")
	showStats, _ := flags.GetBool("stats")

	opts := []gramstore.Option{
		gramstore.WithMaxChars(maxChars),
		gramstore.WithPacing(pacing),
	}
	if seed != 0 {
		opts = append(opts, gramstore.WithSeed(seed))
	}

	m, err := modelFromFlags(cmd, opts...)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := train(cmd, m, args); err != nil {
		return err
	}
	if showStats {
		printTopology(cmd.OutOrStdout(), m.Stats())
	}

	gen, err := m.Generate(cmd.Context(), prompt)
	if err != nil {
		return err
	}
	defer gen.Close()

	out := cmd.OutOrStdout()
	if showCandidates {
		for e := range gen.All() {
			printCandidates(out, e)
			fmt.Fprintf(out, "-> %q\n\n", e.Text)
		}
		fmt.Fprintln(out, gen.Output())
	} else {
		fmt.Fprint(out, prompt)
		for e := range gen.All() {
			fmt.Fprint(out, e.Text)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "[%s]\n", gen.Status())
	return gen.Err()
}

func train(cmd *cobra.Command, m *gramstore.Model, names []string) error {
	texts, err := loadCorpus(cmd, names)
	if err != nil {
		return err
	}

	for i, text := range texts {
		res, err := m.TrainText(cmd.Context(), text)
		if err != nil {
			var full *gramstore.ErrColdTierFull
			if errors.As(err, &full) {
				return fmt.Errorf("%s: %w (raise --cold-capacity)", names[i], err)
			}
			return fmt.Errorf("%s: %w", names[i], err)
		}
		if res.Status == gramstore.TrainStopped {
			return fmt.Errorf("%s: training stopped", names[i])
		}
	}
	return nil
}

func printTopology(w io.Writer, st gramstore.Stats) {
	var data [][]string
	for _, t := range st.Tiers {
		data = append(data, []string{
			strconv.Itoa(t.Order),
			fmt.Sprintf("%d/%d", t.HotSize, t.HotCapacity),
			fmt.Sprintf("%d/%d", t.ColdSize, t.ColdCapacity),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ORDER", "HOT", "COLD"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(w, "vocabulary %d, distinct tokens %d, cold records %d, table bytes %d\n",
		st.VocabularySize, st.DistinctTokens, st.ColdRecords, st.MemoryBytes)
}

func printCandidates(w io.Writer, e gramstore.Emission) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "CANDIDATE", "COUNT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, c := range e.Candidates {
		mark := ""
		if i == e.Chosen {
			mark = "*"
		}
		table.Append([]string{mark, strconv.Quote(c.Text), strconv.Itoa(int(c.Count))})
	}
	table.Render()
}
