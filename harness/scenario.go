package harness

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
)

// Scenario is a YAML-scripted workshop walkthrough: deploy a token,
// run calls as named identities, then check view results. Running one
// produces a human-readable trace that is stable across runs, so
// traces double as golden files and as teaching material.
type Scenario struct {
	Name   string     `yaml:"name"`
	Deploy DeploySpec `yaml:"deploy"`
	Steps  []Step     `yaml:"steps"`
	Checks []Check    `yaml:"checks"`
}

// DeploySpec configures the deployed token. Empty fields fall back to
// My Token / MTK / 1000.
type DeploySpec struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	Supply string `yaml:"supply"`
}

// Step is one state-changing call. Args may name identities (owner,
// alice, bob, token, zero) or carry literal values. Expect is "ok"
// (default) or "revert"; Reason, when set, must appear in the revert
// reason.
type Step struct {
	As     string   `yaml:"as"`
	Call   string   `yaml:"call"`
	Args   []string `yaml:"args"`
	Expect string   `yaml:"expect"`
	Reason string   `yaml:"reason"`
}

// Check asserts a view result after all steps ran.
type Check struct {
	View string   `yaml:"view"`
	Args []string `yaml:"args"`
	Want string   `yaml:"want"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("harness: parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("harness: scenario %s has no name", path)
	}
	return &sc, nil
}

// Run executes the scenario on a fresh fixture and returns the trace.
// A step that deviates from its expectation, or a check that fails,
// aborts the run with an error.
func (sc *Scenario) Run() (string, error) {
	deploy := sc.Deploy
	if deploy.Name == "" {
		deploy.Name = "My Token"
	}
	if deploy.Symbol == "" {
		deploy.Symbol = "MTK"
	}
	if deploy.Supply == "" {
		deploy.Supply = "1000"
	}
	supply, err := uint256.FromDecimal(deploy.Supply)
	if err != nil {
		return "", fmt.Errorf("harness: scenario %s: bad supply %q: %w", sc.Name, deploy.Supply, err)
	}

	f, err := Start(WithToken(deploy.Name, deploy.Symbol, supply))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", sc.Name)
	fmt.Fprintf(&b, "[block %d] owner deploys %s (%s), supply %s -> ok\n",
		f.DeployReceipt.Block, deploy.Name, deploy.Symbol, deploy.Supply)
	writeLogs(&b, f, f.DeployReceipt.Logs)

	for i, step := range sc.Steps {
		id, ok := f.Identity(step.As)
		if !ok {
			return "", fmt.Errorf("harness: scenario %s step %d: unknown identity %q", sc.Name, i, step.As)
		}
		args := make([]any, len(step.Args))
		for j, a := range step.Args {
			args[j] = f.resolveArg(a)
		}

		rcpt, callErr := f.As(id).Call(step.Call, args...)
		if rcpt == nil {
			return "", fmt.Errorf("harness: scenario %s step %d: %w", sc.Name, i, callErr)
		}

		line := fmt.Sprintf("[block %d] %s calls %s(%s)",
			rcpt.Block, step.As, step.Call, strings.Join(step.Args, ", "))

		wantRevert := step.Expect == "revert"
		switch {
		case callErr != nil && !wantRevert:
			return "", fmt.Errorf("harness: scenario %s step %d: unexpected revert: %w", sc.Name, i, callErr)
		case callErr == nil && wantRevert:
			return "", fmt.Errorf("harness: scenario %s step %d: expected a revert, call succeeded", sc.Name, i)
		case wantRevert:
			if step.Reason != "" && !strings.Contains(rcpt.Err, step.Reason) {
				return "", fmt.Errorf("harness: scenario %s step %d: revert reason %q does not contain %q", sc.Name, i, rcpt.Err, step.Reason)
			}
			fmt.Fprintf(&b, "%s -> revert: %s\n", line, rcpt.Err)
		default:
			fmt.Fprintf(&b, "%s -> ok\n", line)
			writeLogs(&b, f, rcpt.Logs)
		}
	}

	for _, check := range sc.Checks {
		args := make([]any, len(check.Args))
		for j, a := range check.Args {
			args[j] = f.resolveArg(a)
		}
		v, err := f.View(check.View, args...)
		if err != nil {
			return "", fmt.Errorf("harness: scenario %s check %s: %w", sc.Name, check.View, err)
		}
		got := renderValue(f, v)
		if got != check.Want {
			return "", fmt.Errorf("harness: scenario %s check %s(%s): got %s, want %s",
				sc.Name, check.View, strings.Join(check.Args, ", "), got, check.Want)
		}
		fmt.Fprintf(&b, "check %s(%s) = %s: ok\n", check.View, strings.Join(check.Args, ", "), check.Want)
	}

	return b.String(), nil
}

// resolveArg maps identity names to addresses and leaves everything
// else for the contract's argument parsing.
func (f *Fixture) resolveArg(s string) any {
	if id, ok := f.byName[s]; ok {
		return id.Addr
	}
	switch s {
	case "zero":
		return chain.ZeroAddress
	case "token":
		return f.Token
	}
	return s
}

func writeLogs(b *strings.Builder, f *Fixture, logs []chain.Log) {
	for _, l := range logs {
		if len(l.Topics) >= 2 {
			from := f.NameOf(chain.HexToAddress(l.Topics[0]))
			to := f.NameOf(chain.HexToAddress(l.Topics[1]))
			if amount, ok := l.Data["amount"]; ok {
				fmt.Fprintf(b, "  %s: %s -> %s, amount %s\n", l.Event, from, to, amount)
			} else {
				fmt.Fprintf(b, "  %s: %s -> %s\n", l.Event, from, to)
			}
			continue
		}
		fmt.Fprintf(b, "  %s\n", l.Event)
	}
}

func renderValue(f *Fixture, v any) string {
	switch t := v.(type) {
	case *uint256.Int:
		return t.Dec()
	case chain.Address:
		return f.NameOf(t)
	case string:
		return t
	case uint8:
		return strconv.Itoa(int(t))
	default:
		return fmt.Sprintf("%v", t)
	}
}
