package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muran-prog/kimi-go/core"
	"github.com/muran-prog/kimi-go/kimi"
)

var (
	prompt   string
	chatName string
	model    string
	files    []string
	noSearch bool
	stream   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a message and print the response",
	Long: `Create a chat, send a message, and print the response.

Examples:
  kimi chat --prompt "Hello"
  kimi chat --prompt "Summarize this" --file report.pdf --stream
  kimi chat --prompt "Hello" --no-search --json`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&prompt, "prompt", "", "User message (required)")
	chatCmd.Flags().StringVar(&chatName, "name", "", "Chat name (default is server-assigned)")
	chatCmd.Flags().StringVar(&model, "model", "", "Model ID (default k2)")
	chatCmd.Flags().StringSliceVar(&files, "file", nil, "File to upload and attach as context (repeatable)")
	chatCmd.Flags().BoolVar(&noSearch, "no-search", false, "Disable web search")
	chatCmd.Flags().BoolVar(&stream, "stream", false, "Print response chunks as they arrive")

	_ = chatCmd.MarkFlagRequired("prompt")
}

func runChat(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := cmd.Context()

	sendOpts := []kimi.SendOption{kimi.WithSearch(!noSearch)}
	if model == "" {
		model = cfg.Model
	}
	if model != "" {
		sendOpts = append(sendOpts, kimi.WithModel(model))
	}

	if len(files) > 0 {
		uploaded, err := engine.UploadFiles(ctx, files...)
		if err != nil {
			return handleError(err)
		}
		ids := make([]string, len(uploaded))
		for i, f := range uploaded {
			ids[i] = f.ID
		}
		sendOpts = append(sendOpts, kimi.WithFileRefs(ids...))
	}

	session, err := engine.CreateChat(ctx, chatName)
	if err != nil {
		return handleError(err)
	}

	if stream {
		return runStreamingChat(ctx, session, sendOpts)
	}
	return runBlockingChat(ctx, session, sendOpts)
}

func runBlockingChat(ctx context.Context, session *kimi.ChatSession, opts []kimi.SendOption) error {
	result, err := session.SendMessage(ctx, prompt, opts...)
	if err != nil {
		return handleError(err)
	}

	if jsonOutput {
		return outputResultJSON(session, result)
	}

	echoPrompt()
	fmt.Println(result.Text)
	return nil
}

func runStreamingChat(ctx context.Context, session *kimi.ChatSession, opts []kimi.SendOption) error {
	msgStream, err := session.SendMessageStream(ctx, prompt, opts...)
	if err != nil {
		return handleError(err)
	}

	if jsonOutput {
		result, err := core.DrainStream(ctx, msgStream)
		if err != nil {
			return handleError(err)
		}
		return outputResultJSON(session, result)
	}

	echoPrompt()

	for ev := range msgStream.Events {
		switch ev := ev.(type) {
		case core.CompletionChunk:
			fmt.Print(ev.Text)
		case core.SearchInfo:
			logger.Debug("search", "type", ev.SearchType)
		case core.StatusUpdate:
			logger.Debug("status", "phase", ev.Phase)
		}
	}
	fmt.Println()

	var streamErr error
	for err := range msgStream.Err {
		streamErr = err
	}
	if streamErr != nil {
		return handleError(streamErr)
	}
	return nil
}

// echoPrompt repeats the prompt before the response, but only when a human
// is watching; piped output stays clean.
func echoPrompt() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("> %s\n", prompt)
	}
}

func outputResultJSON(session *kimi.ChatSession, result *core.MessageResult) error {
	output := map[string]any{
		"chat_id": session.ID(),
		"text":    result.Text,
	}
	if len(result.SearchInfo) > 0 {
		searches := make([]map[string]any, len(result.SearchInfo))
		for i, s := range result.SearchInfo {
			searches[i] = map[string]any{"search_type": s.SearchType}
		}
		output["searches"] = searches
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
