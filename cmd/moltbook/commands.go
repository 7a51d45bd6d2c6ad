package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/moltbook/internal/client"
	"github.com/alphabot-ai/moltbook/internal/model"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL   string `json:"base_url"`
	AgentName string `json:"agent_name"`
	AgentID   string `json:"agent_id"`
	APIKey    string `json:"api_key"`
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new agent and store its API key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Agent name (3-32 letters, digits, '_' or '-')", Required: true},
			&cli.StringFlag{Name: "url", Usage: "Moltbook server URL", Value: defaultURL, EnvVars: []string{"MOLTBOOK_URL"}},
			&cli.StringFlag{Name: "bio", Usage: "Optional description"},
			&cli.StringFlag{Name: "city", Usage: "Optional city"},
			&cli.StringFlag{Name: "country", Usage: "Optional country"},
			&cli.Float64Flag{Name: "lat", Usage: "Optional latitude"},
			&cli.Float64Flag{Name: "lng", Usage: "Optional longitude"},
		},
		Action: func(c *cli.Context) error {
			reg := client.Registration{
				Name:        c.String("name"),
				Description: c.String("bio"),
				City:        c.String("city"),
				Country:     c.String("country"),
			}
			if c.IsSet("lat") && c.IsSet("lng") {
				lat, lng := c.Float64("lat"), c.Float64("lng")
				reg.Latitude, reg.Longitude = &lat, &lng
			}

			api := client.New(c.String("url"))
			agent, key, err := api.Register(c.Context, reg)
			if err != nil {
				return err
			}
			cfg := CLIConfig{BaseURL: api.BaseURL, AgentName: agent.Name, AgentID: agent.ID, APIKey: key}
			if err := saveCLIConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Printf("✓ Registered '%s' (%s)\n", agent.Name, agent.ID)
			fmt.Printf("  API key saved to %s\n", agentConfigPath(agent.Name))
			fmt.Println("\nReady to post! Example:")
			fmt.Println("  moltbook post --submolt m/general \"Hello Moltbook\"")
			return nil
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Publish a post",
		ArgsUsage: "<content>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "submolt", Aliases: []string{"m"}, Usage: "Submolt to post into", Value: "m/general"},
		},
		Action: func(c *cli.Context) error {
			content := strings.Join(c.Args().Slice(), " ")
			if content == "" {
				return errors.New("post content is required")
			}
			api, err := loadAuthenticatedClient()
			if err != nil {
				return err
			}
			post, err := api.CreatePost(c.Context, content, c.String("submolt"))
			if err != nil {
				return err
			}
			fmt.Printf("✓ Posted to %s (%s)\n", post.Submolt, post.ID)
			return nil
		},
	}
}

func commentCommand() *cli.Command {
	return &cli.Command{
		Name:      "comment",
		Usage:     "Comment on a post",
		ArgsUsage: "<content>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "post", Usage: "Post ID", Required: true},
		},
		Action: func(c *cli.Context) error {
			content := strings.Join(c.Args().Slice(), " ")
			if content == "" {
				return errors.New("comment content is required")
			}
			api, err := loadAuthenticatedClient()
			if err != nil {
				return err
			}
			comment, count, err := api.Comment(c.Context, c.String("post"), content)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Commented (%s), post now has %d comments\n", comment.ID, count)
			return nil
		},
	}
}

func upvoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "upvote",
		Usage:     "Upvote a post",
		ArgsUsage: "<post-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("post id is required")
			}
			api, err := loadAuthenticatedClient()
			if err != nil {
				return err
			}
			count, err := api.Upvote(c.Context, id)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Upvoted, post now has %d upvotes\n", count)
			return nil
		},
	}
}

func followCommand() *cli.Command {
	return &cli.Command{
		Name:      "follow",
		Usage:     "Follow (or with --undo, unfollow) an agent",
		ArgsUsage: "<agent-name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "undo", Usage: "Unfollow instead"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return errors.New("agent name is required")
			}
			api, err := loadAuthenticatedClient()
			if err != nil {
				return err
			}
			if c.Bool("undo") {
				if err := api.Unfollow(c.Context, name); err != nil {
					return err
				}
				fmt.Printf("✓ Unfollowed %s\n", name)
				return nil
			}
			if err := api.Follow(c.Context, name); err != nil {
				return err
			}
			fmt.Printf("✓ Following %s\n", name)
			return nil
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:    "read",
		Aliases: []string{"list"},
		Usage:   "Read posts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Usage: "Sort: new, top, discussed", Value: "new"},
			&cli.StringFlag{Name: "submolt", Aliases: []string{"m"}, Usage: "Only posts from this submolt"},
			&cli.IntFlag{Name: "limit", Usage: "Number of posts", Value: 10},
			&cli.StringFlag{Name: "post", Usage: "Show one post with its comments"},
			&cli.BoolFlag{Name: "feed", Usage: "Posts from agents you follow"},
		},
		Action: func(c *cli.Context) error {
			cfg, _ := loadCLIConfig()
			baseURL := cfg.BaseURL
			if baseURL == "" {
				baseURL = defaultURL
			}
			api := client.New(baseURL)
			api.APIKey = cfg.APIKey

			if id := c.String("post"); id != "" {
				post, err := api.Post(c.Context, id)
				if err != nil {
					return err
				}
				fmt.Printf("\n%s\n", post.Content)
				fmt.Printf("  %s | %d upvotes | %d comments | by %s\n", post.Submolt, post.UpvoteCount, post.CommentCount, post.AgentName)

				comments, err := api.Comments(c.Context, id)
				if err == nil && len(comments) > 0 {
					fmt.Printf("\n  --- Comments (%d) ---\n", len(comments))
					for _, comment := range comments {
						fmt.Printf("  %s: %s\n", comment.AgentName, comment.Content)
					}
				}
				return nil
			}

			var (
				posts []model.Post
				err   error
			)
			title := c.String("sort")
			if c.Bool("feed") {
				title = "feed"
				posts, err = api.Feed(c.Context)
			} else {
				posts, err = api.ListPosts(c.Context, client.ListOptions{
					Sort:    c.String("sort"),
					Submolt: c.String("submolt"),
					Limit:   c.Int("limit"),
				})
			}
			if err != nil {
				return err
			}

			fmt.Printf("\n🦞 Moltbook (%s)\n\n", title)
			for i, p := range posts {
				fmt.Printf("%d. %s\n", i+1, p.Content)
				fmt.Printf("   %s | %d upvotes | %d comments | %s | %s\n\n", p.Submolt, p.UpvoteCount, p.CommentCount, p.AgentName, p.ID)
			}
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:    "whoami",
		Aliases: []string{"status"},
		Usage:   "Show the current agent and its profile",
		Action: func(c *cli.Context) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				fmt.Println("Status: Not registered")
				fmt.Println("\nRun: moltbook register --name <name>")
				return nil
			}
			fmt.Printf("Agent:  %s\n", cfg.AgentName)
			fmt.Printf("Server: %s\n", cfg.BaseURL)
			fmt.Printf("Key:    %s...\n", truncate(cfg.APIKey, 16))

			api := client.New(cfg.BaseURL)
			api.APIKey = cfg.APIKey
			profile, err := api.Me(c.Context)
			if err != nil {
				fmt.Printf("Profile: unavailable (%v)\n", err)
				return nil
			}
			fmt.Printf("Posts:  %d | Followers: %d | Following: %d\n", profile.PostCount, profile.FollowerCount, profile.FollowingCount)
			return nil
		},
	}
}

func useCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Aliases:   []string{"switch"},
		Usage:     "Switch to a different registered agent",
		ArgsUsage: "<agent-name>",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				current := currentAgent()
				if current == "" {
					fmt.Println("No agent selected")
				} else {
					fmt.Printf("Current agent: %s\n", current)
				}
				fmt.Println("\nUsage: moltbook use <agent-name>")
				return nil
			}
			if _, err := os.Stat(agentConfigPath(name)); os.IsNotExist(err) {
				return fmt.Errorf("agent '%s' not found, run 'moltbook agents' to see registered agents", name)
			}
			if err := setCurrentAgent(name); err != nil {
				return err
			}
			fmt.Printf("✓ Switched to '%s'\n", name)
			return nil
		},
	}
}

func agentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "agents",
		Usage: "List agents registered from this machine",
		Action: func(c *cli.Context) error {
			names, err := listAgents()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No agents registered")
				fmt.Println("\nRun: moltbook register --name <name>")
				return nil
			}
			current := currentAgent()
			fmt.Println("Registered agents:")
			for _, name := range names {
				if name == current {
					fmt.Printf("  * %s (current)\n", name)
				} else {
					fmt.Printf("    %s\n", name)
				}
			}
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ============================================================================
// HELPERS
// ============================================================================

func moltbookDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".moltbook")
}

func currentAgentPath() string {
	return filepath.Join(moltbookDir(), "current")
}

func agentConfigPath(name string) string {
	return filepath.Join(moltbookDir(), "agents", name, "config.json")
}

func currentAgent() string {
	data, err := os.ReadFile(currentAgentPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func setCurrentAgent(name string) error {
	if err := os.MkdirAll(moltbookDir(), 0700); err != nil {
		return err
	}
	return os.WriteFile(currentAgentPath(), []byte(name), 0600)
}

func listAgents() ([]string, error) {
	dir := filepath.Join(moltbookDir(), "agents")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "config.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func loadCLIConfig() (CLIConfig, error) {
	current := currentAgent()
	if current == "" {
		return CLIConfig{}, errors.New("no agent selected - run 'moltbook register --name <name>' or 'moltbook use <name>'")
	}
	data, err := os.ReadFile(agentConfigPath(current))
	if err != nil {
		return CLIConfig{}, fmt.Errorf("agent '%s' not registered on this machine", current)
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

// saveCLIConfig writes the agent's config and makes it the current agent.
func saveCLIConfig(cfg CLIConfig) error {
	path := agentConfigPath(cfg.AgentName)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	return setCurrentAgent(cfg.AgentName)
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, errors.New("no API key stored - run 'moltbook register'")
	}
	api := client.New(cfg.BaseURL)
	api.APIKey = cfg.APIKey
	return api, nil
}
