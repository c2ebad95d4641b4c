package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeFitCurve() string {
	return `Fits a curve to (x, y) data and computes scales for drawing it on graph paper.

USE WHEN:
- Finding the equation that best describes measured data
- Checking whether data follows a linear, exponential, logarithmic or saturation law
- Preparing a hand-drawn graph of the data and its trend line
- Getting sampled points of the fitted curve for plotting (set curve=true)

INTERPRETING RESULTS:
- mode=optimal tries every model family and keeps the highest r²
- r² close to 1.0 means the curve explains almost all the variation
- r² >= 0.9: good fit; 0.7-0.9: fair; < 0.7: poor, consider another model
- r² can be negative when a forced model fits worse than a flat line
- r² of null with valid=false means the fit is degenerate (e.g. all x identical)
- Exponential needs y > 0, logarithmic needs x > 0, saturation needs x != 0 and y != 0
- active_scale is the scale to draw with: the custom scale when set, else the
  computed one for the chosen orientation

METRICS RETURNED:
- model: type, equation, r2, params (a, b, and c for saturation), n points used
- scales: landscape and portrait scales (x_per_cm, y_per_cm, start_x, start_y)
- active_scale: scale in effect, null when the data has no positive range
- With curve=true: points sampled across the data range padded by 10%`
}

func describeCompareModels() string {
	return `Fits every model family to the same data and ranks them by r².

USE WHEN:
- Deciding which physical law the data follows
- Explaining why the optimal fit picked a particular model
- Spotting models that cannot apply to the data at all

INTERPRETING RESULTS:
- best: the family with the highest comparable r², ties go to the earlier family
  in the order linear, exponential, logarithmic, saturation
- status "no fit": the data violates the model's domain (e.g. y <= 0 for exponential)
- status "degenerate": the fit ran but r² is not a number; loses to any comparable score
- Close r² values between families mean the data cannot tell them apart;
  prefer the simpler model or collect data over a wider range

METRICS RETURNED:
- candidates: type, ok, best flag, model (equation, r2, params)
- best: winning model type, empty when nothing could be fitted`
}

func describePaperScale() string {
	return `Computes round axis scales for plotting data on a sheet of graph paper.

USE WHEN:
- Choosing how many units each centimetre represents before drawing
- Comparing landscape and portrait layouts for the same data
- Checking a user-chosen custom scale and where each point lands

INTERPRETING RESULTS:
- Scales are "nice" steps: 1, 2 or 5 times a power of ten per cm
- The chosen step is the smallest nice step that fits the data range on the sheet
- start_x/start_y default to the smallest x and y; pin them to draw from an origin
- A custom scale is used only when both x_per_cm and y_per_cm are positive
- placements give each point's distance in cm from the axis origin

METRICS RETURNED:
- scales: landscape, portrait, and custom when provided
- active_scale: the scale in effect for the requested orientation
- placements: x, y, dx_cm, dy_cm per point`
}

func describeFitBatch() string {
	return `Fits every dataset file (csv, json, yaml, optionally compressed) under the given paths.

USE WHEN:
- Summarising a directory of experiment runs in one call
- Checking that all runs follow the same model family
- Finding runs whose fit is much worse than the rest

INTERPRETING RESULTS:
- Results keep the order of the scanned files
- Files that fail to load are listed under errors and do not stop the batch
- Files excluded by configuration or .gitignore are not scanned
- Compare r² across runs; an outlier often means a bad measurement

METRICS RETURNED:
- results: one fit summary per dataset (see fit_curve)
- errors: path and message for each file that could not be loaded`
}
