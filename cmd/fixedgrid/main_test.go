package main

import (
	"testing"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/spf13/cobra"
)

func TestParseValues(t *testing.T) {
	got, err := parseValues("1:2.5: 4")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1] != 2.5 || got[2] != 4 {
		t.Errorf("unexpected values %v", got)
	}
	if _, err := parseValues("1:x"); err == nil {
		t.Error("expected bad value to fail")
	}
}

func TestApplyTuned(t *testing.T) {
	cfg := config.DefaultConfig()
	applyTuned(cfg, "kd", 7)
	applyTuned(cfg, "damping", 0.3)

	if cfg.ControllerParams.Kd != 7 {
		t.Errorf("expected kd 7, got %f", cfg.ControllerParams.Kd)
	}
	if cfg.Params["damping"] != 0.3 {
		t.Errorf("expected damping param 0.3, got %v", cfg.Params)
	}
}

func TestRunFlagsOnlyApplyChanged(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--scheme", "midpoint", "--t1", "3", "--init", "0.1,0.2"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.GetPreset("pendulum", "small")
	f.apply(cmd, cfg)

	if cfg.Scheme != "midpoint" || cfg.T1 != 3 {
		t.Errorf("changed flags not applied: %+v", cfg)
	}
	if len(cfg.InitState) != 2 || cfg.InitState[1] != 0.2 {
		t.Errorf("init not applied: %v", cfg.InitState)
	}
	if cfg.StepSize != 0.01 || cfg.Samples != 201 {
		t.Errorf("unchanged flags overwrote the preset: %+v", cfg)
	}
}
