// Command gen-gazelog generates synthetic gaze frame fixtures for testing
// replay mode. The output simulates reading a page of text: fixations
// marching left to right across lines, short forward saccades, occasional
// regressions and blinks.
package main

import (
	"bufio"
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/oculab-data/gaze.report/internal/gaze"
	"github.com/oculab-data/gaze.report/internal/trackermux"
)

const (
	lineStartX   = 120.0
	lineEndX     = 1100.0
	firstLineY   = 180.0
	lineSpacingY = 48.0
	sampleRateHz = 120
)

func main() {
	output := flag.String("o", "fixtures.txt", "output path")
	lines := flag.Int("lines", 12, "number of text lines to read")
	seed := flag.Int64("seed", 42, "random seed")
	regressionRate := flag.Float64("regressions", 0.12, "probability of a regression per fixation")
	blinkRate := flag.Float64("blinks", 0.05, "probability of a blink per fixation")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	const stepMs = 1000 / sampleRateHz
	var ts int64
	var frames int

	emit := func(sample gaze.GazeSample) {
		w.WriteString(trackermux.FormatFrame(sample) + "\n")
		frames++
	}

	for line := 0; line < *lines; line++ {
		y := firstLineY + float64(line)*lineSpacingY
		x := lineStartX
		for x < lineEndX {
			// fixation: 150-350ms of samples jittered around (x, y)
			durationMs := 150 + rng.Intn(200)
			for held := 0; held < durationMs; held += stepMs {
				emit(gaze.GazeSample{
					X:                  x + rng.NormFloat64()*2,
					Y:                  y + rng.NormFloat64()*2,
					TimestampMs:        ts,
					LeftValid:          true,
					RightValid:         true,
					LeftPupilDiameter:  3.8 + rng.NormFloat64()*0.2,
					RightPupilDiameter: 3.8 + rng.NormFloat64()*0.2,
				})
				ts += stepMs
			}

			if rng.Float64() < *blinkRate {
				// blink: both eyes invalid for ~100ms
				for held := 0; held < 100; held += stepMs {
					emit(gaze.GazeSample{TimestampMs: ts})
					ts += stepMs
				}
			}

			if rng.Float64() < *regressionRate {
				x -= 60 + rng.Float64()*80
				if x < lineStartX {
					x = lineStartX
				}
			} else {
				x += 70 + rng.Float64()*50
			}
		}
	}

	log.Printf("✓ Created: %s (%d frames, %.1fs of tracking)", *output, frames, float64(ts)/1000)
}
