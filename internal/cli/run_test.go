package cli_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/docmigrate/internal/cli"
	"github.com/calvinalkan/docmigrate/internal/doclist"
)

func Test_Run_Prints_Usage_And_Exits_1_When_No_Credentials(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.Run()

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "Usage: docmigrate --username <user> --password <pass>")
	cli.AssertContains(t, stdout, "Usage: docmigrate --authSub <token>")

	if stderr != "" {
		t.Errorf("stderr=%q, want empty", stderr)
	}

	if got, want := c.Connects, 0; got != want {
		t.Errorf("connects=%d, want=%d", got, want)
	}
}

func Test_Run_Prints_Usage_When_Only_Username_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, _, code := c.Run("--username", "alice")

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "Usage:")

	if c.Connects != 0 {
		t.Errorf("connects=%d, want=0", c.Connects)
	}
}

func Test_Run_Prints_Usage_When_Help_Flag_Given(t *testing.T) {
	t.Parallel()

	for _, flag := range []string{"-h", "--help"} {
		c := cli.NewCLI(t)
		stdout, _, code := c.Run("-u", "alice", "-p", "secret", flag)

		if got, want := code, 1; got != want {
			t.Errorf("%s: code=%d, want=%d", flag, got, want)
		}

		cli.AssertContains(t, stdout, "--host <host:port>")

		if c.Connects != 0 {
			t.Errorf("%s: connects=%d, want=0", flag, c.Connects)
		}
	}
}

func Test_Run_Reports_Error_When_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.Run("--bogus")

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	if stdout != "" {
		t.Errorf("stdout=%q, want empty", stdout)
	}

	cli.AssertContains(t, stderr, "error: unknown flag: --bogus")
	cli.AssertContains(t, stderr, "Usage:")
}

func Test_Run_Reports_Error_When_Positional_Argument_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	_, stderr, code := c.Run("-u", "alice", "-p", "secret", "list")

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "unexpected argument: list")
}

func Test_Run_Accepts_Credential_Flag_Aliases_When_Given(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		args                   []string
		user, password, author string
	}{
		{name: "long", args: []string{"--username", "a", "--password", "b"}, user: "a", password: "b"},
		{name: "alias", args: []string{"--user=a", "--pass=b"}, user: "a", password: "b"},
		{name: "short", args: []string{"-u", "a", "-p", "b"}, user: "a", password: "b"},
		{name: "authsub", args: []string{"--authSub", "tok"}, author: "tok"},
		{name: "auth alias", args: []string{"--auth", "tok"}, author: "tok"},
		{name: "auth short", args: []string{"-a", "tok"}, author: "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			_, stderr, code := c.RunWithInput("exit\n", tt.args...)

			if code != 0 {
				t.Fatalf("code=%d, want=0\nstderr: %s", code, stderr)
			}

			got := []string{c.Username, c.Password, c.AuthSub}
			want := []string{tt.user, tt.password, tt.author}

			for i := range want {
				if got[i] != want[i] {
					t.Errorf("credentials=%q, want=%q", got, want)

					break
				}
			}
		})
	}
}

func Test_Run_Exits_1_When_Login_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.ConnectErr = errors.Join(doclist.ErrAuthentication, errors.New("BadAuthentication"))

	stdout, stderr, code := c.RunWithInput("list\n", "-u", "alice", "-p", "wrong")

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "error: authentication failed")
	cli.AssertNotContains(t, stdout, "List of docs:")
}

func Test_Run_Exits_1_When_Config_File_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	_, stderr, code := c.Run("-u", "alice", "-p", "secret", "--config", "/nonexistent/docmigrate.json")

	if got, want := code, 1; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "config file not found")

	if c.Connects != 0 {
		t.Errorf("connects=%d, want=0", c.Connects)
	}
}

func Test_Run_Exits_0_And_Prints_Welcome_When_Input_Ends(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.RunWithInput("", "-u", "alice", "-p", "secret")

	if got, want := code, 0; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "Type 'help' for a list of commands.")
	cli.AssertContains(t, stderr, "Command: ")
}

func Test_Run_Warns_When_Wiki_Username_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{"staging_dir": c.Dir + "/staging"})

	_, stderr, code := c.RunWithInput("exit\n", "-a", "tok")

	if got, want := code, 0; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "warning: wiki_username is not configured")
}

func Test_Run_Uses_Env_Wiki_Username_When_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{})
	c.Env["DOCMIGRATE_WIKI_USERNAME"] = "envbot"

	_, stderr, _ := c.RunWithInput("exit\n", "-a", "tok")

	cli.AssertNotContains(t, stderr, "wiki_username is not configured")
}

func Test_Session_Ignores_Commands_When_After_Exit(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"exit", "quit", "q", "exit now", "QUIT"} {
		c := cli.NewCLI(t)
		stdout := c.Session(word + "\nhelp\n")

		if word == "QUIT" {
			// Exit matching is case-sensitive, so QUIT is unknown.
			cli.AssertContains(t, stdout, "Unknown command.")
			cli.AssertContains(t, stdout, "Commands:")

			continue
		}

		cli.AssertNotContains(t, stdout, "Commands:")
	}
}

func Test_Run_Exits_130_When_Interrupted_While_Waiting_For_Input(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, code := c.RunInterrupted("-u", "alice", "-p", "secret")

	if got, want := code, 130; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "Type 'help' for a list of commands.")
}
