package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func Test_IsTerminal_Returns_False_When_File_Is_Null_Device(t *testing.T) {
	t.Parallel()

	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}

	defer func() { _ = f.Close() }()

	if isTerminal(f) {
		t.Errorf("isTerminal(%s)=true, want=false", os.DevNull)
	}
}

func Test_Interactive_Returns_False_When_Stdout_Redirected(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	if interactive(os.Stdin, &out) {
		t.Error("interactive(stdin, buffer)=true, want=false")
	}

	if interactive(strings.NewReader("list\n"), os.Stdout) {
		t.Error("interactive(reader, stdout)=true, want=false")
	}
}

func Test_NewPrompter_Writes_Prompt_To_ErrOut_When_Not_Interactive(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	p := newPrompter(strings.NewReader("list\n"), &out, &errOut, nil, nil)

	line, err := p.Prompt(promptText)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}

	if got, want := line, "list"; got != want {
		t.Errorf("line=%q, want=%q", got, want)
	}

	if got, want := errOut.String(), promptText; got != want {
		t.Errorf("errOut=%q, want=%q", got, want)
	}

	if out.Len() != 0 {
		t.Errorf("out=%q, want empty", out.String())
	}
}
