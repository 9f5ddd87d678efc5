package mandel

import (
	"fmt"
	"sort"
	"strings"
)

// Classic regions / landmarks in the Mandelbrot set
var (
	// Full view – the whole set, [-1.5,0.5]x[-1,1]
	FullView = Region{
		Xmin: -1.5,
		Xmax: 0.5,
		Ymin: -1.0,
		Ymax: 1.0,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Regions maps flag-friendly names to the landmarks above.
var Regions = map[string]Region{
	"full":     FullView,
	"seahorse": SeahorseValley,
	"elephant": ElephantValley,
	"spiral":   SpiralMinibrot,
	"triple":   TripleSpiral,
	"dragon":   ValleyOfTheDragon,
	"minibrot": MinibrotInMiniSpiral,
}

// LookupRegion resolves a landmark by name (case-insensitive).
func LookupRegion(name string) (Region, error) {
	r, ok := Regions[strings.ToLower(name)]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q (known: %s): %w",
			name, strings.Join(RegionNames(), ", "), ErrInvalidRegion)
	}
	return r, nil
}

// RegionNames returns the sorted landmark names.
func RegionNames() []string {
	names := make([]string, 0, len(Regions))
	for n := range Regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
