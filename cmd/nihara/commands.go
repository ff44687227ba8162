package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nihara/internal/embedding"
	"nihara/internal/gen"
	"nihara/internal/state"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one chat message and print Nihara's reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAdapter(); err != nil {
			return err
		}

		message := strings.Join(args, " ")
		p := a.activePersona()
		logger.Info("sending chat message",
			zap.String("persona", p.Key),
			zap.Int("history_len", len(a.st.History())))

		reply := a.adapter.ChatReply(cmd.Context(),
			historyTurns(a.st.History()), message, p.SystemInstruction, a.displayName(), nil)

		now := time.Now().UTC()
		if err := a.st.AppendHistory(
			state.ChatMessage{Role: "user", Text: message, At: now},
			state.ChatMessage{Role: "model", Text: reply, At: now},
		); err != nil {
			return err
		}
		if err := a.st.RecordInteraction(); err != nil {
			return err
		}

		fmt.Println(reply)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [about you...]",
	Short: "Get an astrology reading from Astro-Nihara",
	Long: `Describe yourself (sign, mood, what's on your mind) and receive a
mystical reading. Example:

  nihara predict "libra, starting a new job next week"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAdapter(); err != nil {
			return err
		}

		forecast := a.adapter.AstroForecast(cmd.Context(), strings.Join(args, " "))
		if err := a.st.RecordInteraction(); err != nil {
			return err
		}

		fmt.Println(forecast)
		return nil
	},
}

var (
	imagineRatio string
	imagineOut   string
)

var imagineCmd = &cobra.Command{
	Use:   "imagine [prompt]",
	Short: "Generate an image from a text prompt",
	Long: fmt.Sprintf(`Generates one photorealistic image. Supported aspect ratios: %s.

With --out the image is decoded and written to the file; otherwise the
data URI is printed to stdout.`, strings.Join(gen.AspectRatios, ", ")),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAdapter(); err != nil {
			return err
		}
		if !gen.ValidAspectRatio(imagineRatio) {
			return fmt.Errorf("unsupported aspect ratio %q (supported: %s)",
				imagineRatio, strings.Join(gen.AspectRatios, ", "))
		}

		prompt := strings.Join(args, " ")

		// The image and its caption are independent calls; fetch them
		// concurrently.
		var dataURI, caption string
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			dataURI = a.adapter.GenerateImage(ctx, prompt, imagineRatio)
			return nil
		})
		g.Go(func() error {
			caption = a.adapter.ImageCaption(ctx, prompt)
			return nil
		})
		_ = g.Wait() // adapter methods never return errors

		if err := a.st.RecordInteraction(); err != nil {
			return err
		}
		if dataURI == "" {
			return fmt.Errorf("image generation failed, please try again later")
		}

		if caption != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), caption)
		}

		if imagineOut == "" {
			fmt.Println(dataURI)
			return nil
		}

		raw, err := decodeDataURI(dataURI)
		if err != nil {
			return err
		}
		if err := os.WriteFile(imagineOut, raw, 0644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", imagineOut, len(raw))
		return nil
	},
}

// decodeDataURI extracts the binary payload of a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	_, encoded, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("unexpected data URI format")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return raw, nil
}

var diaryCmd = &cobra.Command{
	Use:   "diary",
	Short: "Read and write the shared diary",
}

var diaryAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a diary entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		entry := state.DiaryEntry{
			ID:        uuid.NewString(),
			Author:    "user",
			Text:      strings.Join(args, " "),
			CreatedAt: time.Now().UTC(),
		}
		if err := a.st.AppendDiary(entry); err != nil {
			return err
		}
		if err := a.st.RecordInteraction(); err != nil {
			return err
		}
		fmt.Printf("saved entry %s\n", entry.ID)
		return nil
	},
}

var diaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List diary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.st.Diary()
		if len(entries) == 0 {
			fmt.Println("the diary is empty")
			return nil
		}
		for _, e := range entries {
			printDiaryEntry(e)
		}
		return nil
	},
}

var diaryReflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Ask Nihara to write a diary entry about your recent conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAdapter(); err != nil {
			return err
		}

		text := a.adapter.DiaryReflection(cmd.Context(),
			recentTurns(a.st.History(), 12), a.displayName())
		if text == "" {
			return fmt.Errorf("nothing to reflect on yet, chat with Nihara first")
		}

		entry := state.DiaryEntry{
			ID:        uuid.NewString(),
			Author:    "nihara",
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.st.AppendDiary(entry); err != nil {
			return err
		}
		if err := a.st.RecordInteraction(); err != nil {
			return err
		}
		printDiaryEntry(entry)
		return nil
	},
}

var diaryRecallTop int

var diaryRecallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Search past diary entries by meaning",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.st.Diary()
		if len(entries) == 0 {
			fmt.Println("the diary is empty")
			return nil
		}

		// Semantic search needs the API; without a key we degrade to
		// plain text matching.
		var engine embedding.Engine
		if a.cfg.APIKey != "" {
			genaiEngine, err := embedding.NewGenAIEngine(cmd.Context(), a.cfg.APIKey, a.cfg.EmbeddingModel)
			if err != nil {
				logger.Warn("embedding engine unavailable, falling back to text match", zap.Error(err))
			} else {
				engine = genaiEngine
			}
		}

		texts := make([]string, len(entries))
		for i, e := range entries {
			texts[i] = e.Text
		}

		query := strings.Join(args, " ")
		results, err := embedding.SearchTexts(cmd.Context(), engine, texts, query, diaryRecallTop)
		if err != nil {
			logger.Warn("semantic recall failed, falling back to text match", zap.Error(err))
			results, _ = embedding.SearchTexts(cmd.Context(), nil, texts, query, diaryRecallTop)
		}

		if len(results) == 0 {
			fmt.Println("no matching entries")
			return nil
		}
		for _, r := range results {
			printDiaryEntry(entries[r.Index])
		}
		return nil
	},
}

func printDiaryEntry(e state.DiaryEntry) {
	author := "you"
	if e.Author == "nihara" {
		author = "Nihara"
	}
	fmt.Printf("[%s] %s\n%s\n\n", e.CreatedAt.Format("2006-01-02 15:04"), author, e.Text)
}

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "List or select Nihara's persona",
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		selected := a.activePersona().Key
		for _, p := range a.personas.List() {
			marker := " "
			if p.Key == selected {
				marker = "*"
			}
			pro := ""
			if p.ProOnly {
				pro = " (pro)"
			}
			fmt.Printf("%s %-10s %s%s\n", marker, p.Key, p.Description, pro)
		}
		return nil
	},
}

var personaSetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Select a persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		key := args[0]
		if !a.personas.Has(key) {
			return fmt.Errorf("unknown persona %q, see 'nihara persona list'", key)
		}
		p := a.personas.Get(key)
		if p.ProOnly && !a.st.IsPro() {
			return fmt.Errorf("persona %q needs the pro unlock, see 'nihara upgrade'", key)
		}
		if err := a.st.SetPersona(key); err != nil {
			return err
		}
		fmt.Printf("persona set to %s\n", p.Name)
		return nil
	},
}

var toneCmd = &cobra.Command{
	Use:   "tone [voice]",
	Short: "Show or set the live-mode voice tone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			fmt.Println(a.st.VoiceTone())
			return nil
		}
		if err := a.st.SetVoiceTone(args[0]); err != nil {
			return err
		}
		fmt.Printf("voice tone set to %s\n", args[0])
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name [display name]",
	Short: "Show or set how Nihara addresses you",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			if a.st.UserName() == "" {
				fmt.Println("no name set yet")
				return nil
			}
			fmt.Println(a.st.UserName())
			return nil
		}
		name := strings.Join(args, " ")
		if err := a.st.SetUserName(name); err != nil {
			return err
		}
		fmt.Printf("nice to meet you, %s\n", name)
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [code]",
	Short: "Enter an upgrade code to unlock pro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.st.ApplyUpgrade(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("that code didn't work")
		}
		fmt.Println("pro unlocked ✨")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show profile, persona, and commitment level",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()

		tier := "free"
		if a.st.IsPro() {
			tier = "pro"
		}
		connected := "not configured"
		if a.adapter.Available() {
			connected = "ready"
		}

		fmt.Printf("name:        %s\n", a.displayName())
		fmt.Printf("persona:     %s\n", a.activePersona().Name)
		fmt.Printf("voice tone:  %s\n", a.st.VoiceTone())
		fmt.Printf("tier:        %s\n", tier)
		fmt.Printf("commitment:  %d/%d\n", a.st.CommitmentLevel(), state.MaxCommitment)
		fmt.Printf("messages:    %d\n", len(a.st.History()))
		fmt.Printf("diary:       %d entries\n", len(a.st.Diary()))
		fmt.Printf("gemini:      %s\n", connected)
		return nil
	},
}

func init() {
	imagineCmd.Flags().StringVar(&imagineRatio, "ratio", "1:1",
		fmt.Sprintf("aspect ratio (%s)", strings.Join(gen.AspectRatios, ", ")))
	imagineCmd.Flags().StringVarP(&imagineOut, "out", "o", "", "write the image to this file")

	diaryRecallCmd.Flags().IntVar(&diaryRecallTop, "top", 5, "maximum entries to return")

	diaryCmd.AddCommand(diaryAddCmd)
	diaryCmd.AddCommand(diaryListCmd)
	diaryCmd.AddCommand(diaryReflectCmd)
	diaryCmd.AddCommand(diaryRecallCmd)

	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaSetCmd)
}
