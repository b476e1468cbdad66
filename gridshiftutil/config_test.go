/*
Copyright © 2026 the GridShift authors.
This file is part of GridShift.

GridShift is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GridShift is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GridShift.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridshiftutil

import (
	"path/filepath"
	"testing"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
)

func TestGetFloat64Slice(t *testing.T) {
	cfg := viper.New()

	cfg.Set("v", "0.05, 0.5,0.95")
	got, err := getFloat64Slice("v", cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.05, 0.5, 0.95}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}

	// Bracketed form, as a config file might render a list.
	cfg.Set("v", "[0.1,0.9]")
	if got, err = getFloat64Slice("v", cfg); err != nil || len(got) != 2 || got[0] != 0.1 || got[1] != 0.9 {
		t.Errorf("bracketed: got %v, %v", got, err)
	}

	cfg.Set("v", "")
	if got, err = getFloat64Slice("v", cfg); err != nil || got != nil {
		t.Errorf("empty string should yield nil, got %v, %v", got, err)
	}

	if got, err = getFloat64Slice("unset", cfg); err != nil || got != nil {
		t.Errorf("unset variable should yield nil, got %v, %v", got, err)
	}

	cfg.Set("v", []interface{}{0.1, "0.5"})
	if got, err = getFloat64Slice("v", cfg); err != nil || len(got) != 2 || got[1] != 0.5 {
		t.Errorf("interface slice: got %v, %v", got, err)
	}

	cfg.Set("v", "0.1,oops")
	if _, err = getFloat64Slice("v", cfg); err == nil {
		t.Error("unparseable entry should fail")
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()

	cfg.Set("v", map[string]interface{}{"a": "b"})
	if m := GetStringMapString("v", cfg); m["a"] != "b" {
		t.Errorf("map form: got %v", m)
	}

	cfg.Set("v", `{"x":"exp(mean)"}`)
	if m := GetStringMapString("v", cfg); m["x"] != "exp(mean)" {
		t.Errorf("json form: got %v", m)
	}

	cfg.Set("v", " ")
	if m := GetStringMapString("v", cfg); len(m) != 0 {
		t.Errorf("blank form: got %v", m)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty output file should fail")
	}
	if _, err := checkOutputFile("out.pdf"); err == nil {
		t.Error("unknown extension should fail")
	}
	if _, err := checkOutputFile(filepath.Join("no", "such", "dir", "out.csv")); err == nil {
		t.Error("missing directory should fail")
	}

	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.xlsx", "OUT.CSV"} {
		if _, err := checkOutputFile(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	t.Setenv("GRIDSHIFT_TEST_OUT", dir)
	f, err := checkOutputFile("$GRIDSHIFT_TEST_OUT/out.csv")
	if err != nil {
		t.Fatal(err)
	}
	if f != filepath.Join(dir, "out.csv") {
		t.Errorf("environment expansion: got %q", f)
	}
}

func TestModelConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("QuantileLevels", "0.1,0.5,0.9")
	cfg.Set("AtTimes", "")
	cfg.Set("Metrics", []string{"centroid", "summary"})
	cfg.Set("OnlyInSharedCells", true)
	cfg.Set("Workers", 4)
	cfg.Set("GreatCircle", true)

	c, err := modelConfig(cfg, logrus.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Quantiles) != 3 || c.Quantiles[1] != 0.5 {
		t.Errorf("quantiles: got %v", c.Quantiles)
	}
	if c.AtTimes != nil {
		t.Errorf("atTimes: got %v, want nil", c.AtTimes)
	}
	if len(c.Metrics) != 2 || !c.OnlyShared || c.Workers != 4 {
		t.Errorf("config not carried through: %+v", c)
	}
	if c.Distance == nil {
		t.Error("GreatCircle should select a distance function")
	}

	cfg.Set("GreatCircle", false)
	c, err = modelConfig(cfg, logrus.New())
	if err != nil {
		t.Fatal(err)
	}
	if c.Distance != nil {
		t.Error("distance should default to nil (planar) without GreatCircle")
	}
}
