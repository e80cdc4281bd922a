package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/joho/godotenv"

	"github.com/openshift-partner-labs/labform"
	formschema "github.com/openshift-partner-labs/labform/schema"
	"github.com/openshift-partner-labs/labform/session"
	"github.com/openshift-partner-labs/labform/store"
	"github.com/openshift-partner-labs/labform/tool"
)

const systemPromptTemplate = `You are a helpful OpenShift lab request assistant. Your job is to collect information from users to create lab requests.

Behavior:
- Be proactive and ask for ONE piece of information at a time.
- Use update_form_field to store each answer and relay any rejection message back to the user.
- Use check_form_completeness to see what is still missing.
- When nothing is missing, show get_form_summary and ask the user to confirm.
- Call submit_form only after the user explicitly confirms the summary.

The form schema:
%s
`

func main() {
	dbPath := flag.String("db", "requests.db", "path to the sqlite request store")
	flag.Parse()
	if err := run(context.Background(), *dbPath); err != nil {
		log.Fatalf("labassistant: %v", err)
	}
}

func run(ctx context.Context, dbPath string) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	userEmail := os.Getenv("LAB_USER_EMAIL")
	if userEmail == "" {
		return fmt.Errorf("LAB_USER_EMAIL is not set")
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	})
	if err != nil {
		return fmt.Errorf("init chat model: %w", err)
	}

	records, err := store.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open request store: %w", err)
	}
	defer records.Close()

	engine := labform.New(records)
	toolSet := tool.NewSet(engine, func(context.Context) (string, error) {
		return userEmail, nil
	})
	tools, err := toolSet.Tools()
	if err != nil {
		return fmt.Errorf("build tools: %w", err)
	}

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cm,
		ToolsConfig:      compose.ToolsNodeConfig{Tools: tools},
	})
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	formSchema, err := formschema.JSONSchema()
	if err != nil {
		return fmt.Errorf("reflect form schema: %w", err)
	}

	sessionID := session.NewSessionID()
	ctx = tool.WithSessionID(ctx, sessionID)
	history := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(systemPromptTemplate, formSchema)),
	}

	fmt.Println("Hello! I can help you request a new OpenShift lab environment.")
	fmt.Println("Let's start with the basics - what would you like to name your project?")
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("you: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("bye")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		history = append(history, schema.UserMessage(input))
		reply, gErr := agent.Generate(ctx, history)
		if gErr != nil {
			return fmt.Errorf("generate reply: %w", gErr)
		}
		history = append(history, reply)
		fmt.Printf("\nassistant: %s\n\n", reply.Content)
	}
}
