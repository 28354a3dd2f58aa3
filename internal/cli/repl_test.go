package cli_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/docmigrate/internal/cli"
	"github.com/calvinalkan/docmigrate/internal/migrate"
)

func seed(c *cli.CLI) {
	c.Docs.Add(migrate.Document{
		ID:      "document:abc123",
		Title:   "Report",
		Kind:    "document",
		Parents: []string{"Finance"},
	}, "<p>Quarterly <b>numbers</b></p>")
	c.Docs.Add(migrate.Document{
		ID:    "folder:f1",
		Title: "Finance",
		Kind:  "folder",
	}, "")
	c.Docs.Add(migrate.Document{
		ID:    "document:orphan",
		Title: "Loose Notes",
		Kind:  "document",
	}, "<p>notes</p>")
	c.Docs.Folders["f1"] = []string{"document:abc123"}
	c.Docs.RevisionsByID["document:abc123"] = []migrate.Revision{{
		Title:       "Revision 1",
		Updated:     time.Date(2009, 6, 2, 8, 30, 0, 0, time.UTC),
		Author:      "alice",
		AuthorEmail: "alice@example.com",
		Link:        "https://docs.example/Doc?id=abc123&revision=1",
	}}
}

// outputAfterWelcome drops the welcome banner.
func outputAfterWelcome(t *testing.T, stdout string) string {
	t.Helper()

	const banner = "Type 'help' for a list of commands.\n\n"

	_, after, ok := strings.Cut(stdout, banner)
	if !ok {
		t.Fatalf("welcome banner missing:\n%s", stdout)
	}

	return after
}

func Test_Help_Lists_All_Commands_When_No_Argument(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.Session("help\n")

	cli.AssertContains(t, stdout, "Commands:")

	for _, usage := range []string{
		"list [object_type] [...]",
		"search <search_text>",
		"asearch [<query_param>=<value>] ...",
		"revisions <resource_id>",
		"migrate <resource_id> [category]",
		"history [n]",
		"help [command]",
		"exit",
	} {
		cli.AssertContains(t, stdout, "    "+usage)
	}

	cli.AssertContains(t, stdout, "[[migrate a document to Wiki]]")
}

func Test_Help_Prints_Migrate_Text_When_Asked_For_Migrate(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	got := outputAfterWelcome(t, c.Session("help migrate\n"))

	want := "migrate <resource_id> [category]\n" +
		"    Migrate the resource with resource ID under the category\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("help migrate mismatch (-want +got):\n%s", diff)
	}
}

func Test_Help_Prints_Unknown_Command_When_Command_Bogus(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	got := outputAfterWelcome(t, c.Session("help bogus\n"))

	if got, want := got, "unknown command\n"; got != want {
		t.Errorf("output=%q, want=%q", got, want)
	}
}

func Test_Session_Prints_Unknown_Command_And_Continues_When_Command_Unrecognized(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	stdout := c.Session("frobnicate\n\n   \nlist\n")

	cli.AssertContains(t, stdout, "Unknown command. Type 'help' for a list of commands.\n")
	cli.AssertContains(t, stdout, "List of docs:")

	if got, want := strings.Count(stdout, "Unknown command."), 1; got != want {
		t.Errorf("unknown command count=%d, want=%d (blank lines must be ignored)", got, want)
	}
}

func Test_List_Prints_Documents_With_Parents_When_No_Filter(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("list\n"))

	want := "List of docs:\n" +
		" -- Report [Finance] document:abc123\n" +
		" -- Loose Notes document:orphan\n" +
		" -- Finance folder:f1\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func Test_List_Filters_By_Type_When_Type_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("list folders\n"))

	if diff := cmp.Diff("List of all folders:\n -- Finance folder:f1\n", got); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func Test_List_Prints_Folder_Contents_When_Folder_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("list folder f1\n"))

	want := "Contents of folder_id 'f1':\n -- Report [Finance] document:abc123\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list folder mismatch (-want +got):\n%s", diff)
	}
}

func Test_List_Prints_Help_When_Arguments_Malformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"list folder\n", "list a b c\n"} {
		c := cli.NewCLI(t)
		stdout := c.Session(input)

		cli.AssertContains(t, stdout, "list folder <folder_id>")
		cli.AssertNotContains(t, stdout, "List of")
	}
}

func Test_List_Reports_Error_And_Continues_When_Service_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Docs.ListErr = errors.New("document service: Internal Server Error")

	stdout, stderr, code := c.RunWithInput("list\nhelp exit\n", "-u", "alice", "-p", "secret")

	if got, want := code, 0; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "error: document service: Internal Server Error")
	cli.AssertContains(t, stdout, "    Exit the program.")
}

func Test_Search_Passes_Rest_Of_Line_When_Text_Has_Spaces(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("search   Loose Notes  \n"))

	if diff := cmp.Diff("Results for [Loose Notes]\n -- Loose Notes document:orphan\n", got); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(map[string]string{"q": "Loose Notes"}, c.Docs.LastSearch); diff != "" {
		t.Errorf("search params mismatch (-want +got):\n%s", diff)
	}
}

func Test_Search_Prints_Help_When_Text_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.Session("search\n")

	cli.AssertContains(t, stdout, "    search_text: A string to be used for a full text query")
}

func Test_ASearch_Builds_Parameters_When_Pairs_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("asearch title=Report owner=alice@example.com\n"))

	if diff := cmp.Diff("Results for advanced search:\n -- Report [Finance] document:abc123\n", got); diff != "" {
		t.Errorf("asearch mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{"title": "Report", "owner": "alice@example.com"}
	if diff := cmp.Diff(want, c.Docs.LastSearch); diff != "" {
		t.Errorf("asearch params mismatch (-want +got):\n%s", diff)
	}
}

func Test_ASearch_Prints_Help_When_Pair_Malformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"asearch\n", "asearch title\n", "asearch =x\n"} {
		c := cli.NewCLI(t)
		stdout := c.Session(input)

		cli.AssertContains(t, stdout, "asearch [<query_param>=<value>] [<query_param2>=<value2>] ...")
		cli.AssertNotContains(t, stdout, "Results for")
	}
}

func Test_Revisions_Prints_Entries_When_Document_Known(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("revisions document:abc123\n"))

	want := "List of revisions...\n" +
		" -- Revision 1, created on 2009-06-02 08:30:00  by alice - alice@example.com\n" +
		"    https://docs.example/Doc?id=abc123&revision=1\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("revisions mismatch (-want +got):\n%s", diff)
	}
}

func Test_Revisions_Prints_Help_When_Id_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.Session("revisions\n")

	cli.AssertContains(t, stdout, "    resource_id: document resource id")
}

func Test_Migrate_Uses_Parent_Folder_When_No_Category_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	got := outputAfterWelcome(t, c.Session("migrate document:abc123\n"))

	if got, want := got, "The document \"Report\" is successfully migrated under \"Finance\"\n"; got != want {
		t.Errorf("output=%q, want=%q", got, want)
	}

	if got, want := c.Wiki.Text("CloudHealth"), "\n*[[Finance]]"; got != want {
		t.Errorf("root=%q, want=%q", got, want)
	}

	if got, want := c.Wiki.Text("Finance"), "\n*[[Report]]"; got != want {
		t.Errorf("category=%q, want=%q", got, want)
	}

	cli.AssertContains(t, c.Wiki.Text("Report"), "'''numbers'''")
}

func Test_Migrate_Uses_Explicit_Category_When_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	stdout := c.Session("migrate document:abc123 HR\n")

	cli.AssertContains(t, stdout, "The document \"Report\" is successfully migrated under \"HR\"")

	if got, want := c.Wiki.Text("HR"), "\n*[[Report]]"; got != want {
		t.Errorf("category=%q, want=%q", got, want)
	}

	if got := c.Wiki.Text("Finance"); got != "" {
		t.Errorf("Finance page=%q, want untouched", got)
	}
}

func Test_Migrate_Uses_Configured_Default_When_No_Parent(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{
		"staging_dir":      c.Dir + "/staging",
		"wiki_username":    "bot",
		"root_page":        "Index",
		"default_category": "Inbox",
	})
	seed(c)

	stdout := c.Session("migrate document:orphan\n")

	cli.AssertContains(t, stdout, "migrated under \"Inbox\"")

	if got, want := c.Wiki.Text("Index"), "\n*[[Inbox]]"; got != want {
		t.Errorf("root=%q, want=%q", got, want)
	}
}

func Test_Migrate_Writes_Markdown_When_Markup_Is_Markdown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{
		"staging_dir":   c.Dir + "/staging",
		"wiki_username": "bot",
		"markup":        "markdown",
	})
	seed(c)

	c.Session("migrate document:abc123\n")

	cli.AssertContains(t, c.Wiki.Text("Report"), "**numbers**")
}

func Test_Migrate_Reports_Error_And_Continues_When_Document_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	stdout, stderr, code := c.RunWithInput("migrate document:missing\nmigrate document:abc123\n", "-u", "a", "-p", "b")

	if got, want := code, 0; got != want {
		t.Errorf("code=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "error: download failed")
	cli.AssertContains(t, stdout, "successfully migrated under \"Finance\"")
}

func Test_Migrate_Prints_Help_When_Arguments_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.Session("migrate\nmigrate a b c\n")

	if got, want := strings.Count(stdout, "    Migrate the resource with resource ID under the category"), 2; got != want {
		t.Errorf("help count=%d, want=%d", got, want)
	}
}

func Test_History_Lists_Migrations_When_Journal_Enabled(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	seed(c)

	c.Session("migrate document:abc123\nmigrate document:abc123 HR\n")

	stdout := c.Session("history\nhistory 1\n")

	if got, want := strings.Count(stdout, "Report [Finance] document:abc123"), 1; got != want {
		t.Errorf("Finance entries=%d, want=%d\n%s", got, want, stdout)
	}

	if got, want := strings.Count(stdout, "Report [HR] document:abc123"), 2; got != want {
		t.Errorf("HR entries=%d, want=%d (newest first, shown by both commands)\n%s", got, want, stdout)
	}
}

func Test_History_Reports_Disabled_When_Journal_Off(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{"wiki_username": "bot", "journal": false})

	stdout := c.Session("history\n")

	cli.AssertContains(t, stdout, "The migration journal is disabled.")
}

func Test_History_Prints_Help_When_Count_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.Session("history zero\nhistory 0\n")

	if got, want := strings.Count(stdout, "history [n]"), 2; got != want {
		t.Errorf("help count=%d, want=%d", got, want)
	}
}

func Test_Config_Shows_Sources_And_Masks_Password_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(map[string]any{"wiki_username": "bot", "wiki_password": "hunter2"})

	stdout := c.Session("config\n")

	cli.AssertContains(t, stdout, `"wiki_username": "bot"`)
	cli.AssertContains(t, stdout, "#   global: "+c.Env["XDG_CONFIG_HOME"]+"/docmigrate/config.json")
	cli.AssertNotContains(t, stdout, "hunter2")
}
