package main

import (
	"fmt"

	"github.com/panbanda/fitpaper/internal/service/fitting"
	"github.com/urfave/cli/v2"
)

func fitCmd() *cli.Command {
	return &cli.Command{
		Name:      "fit",
		Usage:     "Fit a model to a dataset and compute paper scales",
		ArgsUsage: "[dataset]",
		Description: `Fits the model chosen by --mode (optimal by default) and prints the
equation, r², coefficients and the landscape, portrait and custom scales.

Examples:
  fitpaper fit growth.csv
  fitpaper fit -m exp -f json growth.csv.gz
  fitpaper fit -p "1,2 2,4.1 3,5.9"`,
		Flags:  flags([]cli.Flag{modeFlag()}, dataFlags(), scaleFlags(), outputFlags()),
		Action: runFitCmd,
	}
}

func runFitCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	ds, path, err := loadDataset(c, svc)
	if err != nil {
		return err
	}
	req, err := buildRequest(c, svc)
	if err != nil {
		return err
	}

	res := svc.Fit(ds, req)
	res.Path = path
	if res.Fitted() && !res.Model.Valid() {
		warnf("Warning: the %s fit is degenerate", res.Model.Type)
	}
	return render(c, svc.Config(), res)
}

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Aliases:   []string{"cmp"},
		Usage:     "Fit every model family and rank them by r²",
		ArgsUsage: "[dataset]",
		Flags:     flags(dataFlags(), outputFlags()),
		Action:    runCompareCmd,
	}
}

func runCompareCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	ds, path, err := loadDataset(c, svc)
	if err != nil {
		return err
	}

	cmp := svc.Compare(ds)
	cmp.Path = path
	if len(cmp.Candidates) == 0 {
		return fmt.Errorf("need at least 2 points to compare models, got %d", ds.Len())
	}
	return render(c, svc.Config(), cmp)
}

func scaleCmd() *cli.Command {
	return &cli.Command{
		Name:      "scale",
		Usage:     "Compute paper scales and where each point lands",
		ArgsUsage: "[dataset]",
		Flags:     flags(dataFlags(), scaleFlags(), outputFlags()),
		Action:    runScaleCmd,
	}
}

func runScaleCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	ds, path, err := loadDataset(c, svc)
	if err != nil {
		return err
	}
	req, err := buildRequest(c, svc)
	if err != nil {
		return err
	}

	res := &fitting.Result{
		Path:        path,
		Dataset:     ds,
		Orientation: req.Orientation,
		Scales:      svc.Scales(ds, req),
	}
	return render(c, svc.Config(), fitting.ScaleView{Result: res})
}

func curveCmd() *cli.Command {
	return &cli.Command{
		Name:      "curve",
		Usage:     "Sample the fitted curve for plotting",
		ArgsUsage: "[dataset]",
		Flags: flags(
			[]cli.Flag{
				modeFlag(),
				&cli.IntFlag{
					Name:  "steps",
					Usage: "Sampling intervals across the padded data range",
				},
			},
			dataFlags(),
			outputFlags(),
		),
		Action: runCurveCmd,
	}
}

func runCurveCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	ds, path, err := loadDataset(c, svc)
	if err != nil {
		return err
	}
	req, err := buildRequest(c, svc)
	if err != nil {
		return err
	}

	res := svc.Fit(ds, req)
	res.Path = path
	if !res.Fitted() {
		return fmt.Errorf("could not fit a %s model to %d points", req.Mode, ds.Len())
	}
	return render(c, svc.Config(), fitting.CurveView{Result: res})
}
