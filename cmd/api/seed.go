package main

import (
	"time"

	"github.com/google/uuid"

	"xolvetech/internal/kits"
)

// seedLocalKits returns a collection of demo kits for local development.
func seedLocalKits() []kits.Kit {
	now := time.Now().UTC()

	return []kits.Kit{
		{
			ID:          uuid.New(),
			Title:       "Circuit Starter Lab",
			Description: "Build your first circuits with a breadboard, LEDs, and jumper wires. No soldering required.",
			Price:       499,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/circuit-starter.jpg"},
			Category:    kits.CategoryElectronics,
			Difficulty:  kits.DifficultyBeginner,
			AgeGroup:    "10-14",
			Components:  []string{"Breadboard", "LEDs", "Resistors", "Jumper wires", "9V battery clip"},
			LearningOutcomes: []string{
				"Read a simple circuit diagram",
				"Understand current, voltage, and resistance",
				"Build series and parallel circuits",
			},
			EstimatedHours: 4,
			Rating:         4.8,
			ReviewCount:    34,
			InStock:        true,
			Tags:           []string{"starter", "circuits", "no-solder"},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:          uuid.New(),
			Title:       "Line Follower Robot",
			Description: "Assemble a two-motor robot that follows a track using infrared sensors.",
			Price:       1299,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/line-follower.jpg"},
			Category:    kits.CategoryRobotics,
			Difficulty:  kits.DifficultyIntermediate,
			AgeGroup:    "12-16",
			Components:  []string{"Chassis", "DC motors", "IR sensor pair", "Motor driver", "Battery holder"},
			LearningOutcomes: []string{
				"Wire motors through a driver board",
				"Calibrate analog sensors",
				"Tune a simple feedback loop",
			},
			EstimatedHours: 8,
			Rating:         4.6,
			ReviewCount:    21,
			InStock:        true,
			Tags:           []string{"robot", "sensors"},
			CreatedAt:      now.Add(1 * time.Minute),
			UpdatedAt:      now.Add(1 * time.Minute),
		},
		{
			ID:          uuid.New(),
			Title:       "Microcontroller Weather Station",
			Description: "Program a microcontroller to log temperature and humidity, then chart the readings.",
			Price:       1799,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/weather-station.jpg"},
			Category:    kits.CategoryProgramming,
			Difficulty:  kits.DifficultyIntermediate,
			AgeGroup:    "13-17",
			Components:  []string{"Microcontroller board", "DHT22 sensor", "OLED display", "USB cable"},
			LearningOutcomes: []string{
				"Flash firmware over USB",
				"Read sensor data over a digital bus",
				"Plot a time series",
			},
			EstimatedHours: 10,
			Rating:         4.9,
			ReviewCount:    17,
			InStock:        true,
			Tags:           []string{"coding", "sensors", "data"},
			CreatedAt:      now.Add(2 * time.Minute),
			UpdatedAt:      now.Add(2 * time.Minute),
		},
		{
			ID:          uuid.New(),
			Title:       "Kitchen Chemistry Set",
			Description: "Safe, repeatable experiments exploring acids, bases, and indicators with household materials.",
			Price:       699,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/kitchen-chemistry.jpg"},
			Category:    kits.CategoryScience,
			Difficulty:  kits.DifficultyBeginner,
			AgeGroup:    "8-12",
			Components:  []string{"pH strips", "Measuring spoons", "Test tubes", "Activity booklet"},
			LearningOutcomes: []string{
				"Classify substances as acidic or basic",
				"Record observations like a lab notebook",
			},
			EstimatedHours: 3,
			Rating:         4.5,
			ReviewCount:    42,
			InStock:        true,
			Tags:           []string{"chemistry", "home-lab"},
			CreatedAt:      now.Add(3 * time.Minute),
			UpdatedAt:      now.Add(3 * time.Minute),
		},
		{
			ID:          uuid.New(),
			Title:       "Solar Car Challenge",
			Description: "Build a small solar-powered car and race it against the clock.",
			Price:       999,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/solar-car.jpg"},
			Category:    kits.CategoryScience,
			Difficulty:  kits.DifficultyBeginner,
			AgeGroup:    "10-14",
			Components:  []string{"Solar panel", "Motor", "Wheels", "Axle set", "Chassis plate"},
			LearningOutcomes: []string{
				"Convert light into mechanical motion",
				"Experiment with gear ratios",
			},
			EstimatedHours: 5,
			Rating:         4.3,
			ReviewCount:    9,
			InStock:        false,
			Tags:           []string{"solar", "energy"},
			CreatedAt:      now.Add(4 * time.Minute),
			UpdatedAt:      now.Add(4 * time.Minute),
		},
		{
			ID:          uuid.New(),
			Title:       "Robotic Arm Workshop",
			Description: "A servo-driven arm with a programmable controller for pick-and-place challenges.",
			Price:       2499,
			Currency:    "INR",
			Images:      []string{"https://images.xolvetech.in/kits/robotic-arm.jpg"},
			Category:    kits.CategoryRobotics,
			Difficulty:  kits.DifficultyAdvanced,
			AgeGroup:    "14+",
			Components:  []string{"Servo motors", "Acrylic arm segments", "Controller board", "Joystick module"},
			LearningOutcomes: []string{
				"Control servos with PWM",
				"Map joystick input to joint angles",
				"Sequence multi-step motions",
			},
			EstimatedHours: 14,
			Rating:         4.7,
			ReviewCount:    13,
			InStock:        true,
			Tags:           []string{"robot", "servo", "advanced"},
			CreatedAt:      now.Add(5 * time.Minute),
			UpdatedAt:      now.Add(5 * time.Minute),
		},
	}
}
