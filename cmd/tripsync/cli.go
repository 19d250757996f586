package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

// startCLI runs the numbered console menu until exit or end of input
func startCLI(scanner *bufio.Scanner, out io.Writer, d *state.Dispatcher) {
	for {
		fmt.Fprintln(out, "\nCommands:")
		fmt.Fprintln(out, "  1. View all trips")
		fmt.Fprintln(out, "  2. Create trip")
		fmt.Fprintln(out, "  3. Select active trip")
		fmt.Fprintln(out, "  4. View itinerary")
		fmt.Fprintln(out, "  5. Add activity")
		fmt.Fprintln(out, "  6. Exit")
		fmt.Fprint(out, "\nEnter command (1-6): ")

		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			viewAllTrips(out, d.Store())
		case "2":
			createTrip(scanner, out, d)
		case "3":
			selectTrip(scanner, out, d)
		case "4":
			viewItinerary(out, d.Store())
		case "5":
			addActivity(scanner, out, d)
		case "6":
			fmt.Fprintln(out, "Exiting...")
			return
		default:
			fmt.Fprintln(out, "Invalid command. Please try again.")
		}
	}
}

func prompt(scanner *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func viewAllTrips(out io.Writer, store *state.Store) {
	snapshot := store.Snapshot()
	if len(snapshot.Trips) == 0 {
		fmt.Fprintln(out, "\nNo trips found.")
		return
	}

	fmt.Fprintf(out, "\n📋 All Trips (%d total):\n", len(snapshot.Trips))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for i, trip := range snapshot.Trips {
		marker := " "
		if trip.ID == snapshot.ActiveTripID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d. %s\n", marker, i+1, trip.Title)
		fmt.Fprintf(out, "   Dates: %s → %s (%d days)\n", trip.StartDate, trip.EndDate, len(trip.DailyItinerary))
		fmt.Fprintf(out, "   Members: %d, Plans: %d\n", len(trip.Members), len(trip.Plans))
	}
	fmt.Fprintln(out, strings.Repeat("-", 60))
}

func createTrip(scanner *bufio.Scanner, out io.Writer, d *state.Dispatcher) {
	title, ok := prompt(scanner, out, "Enter trip title: ")
	if !ok || title == "" {
		return
	}
	start, ok := prompt(scanner, out, "Enter start date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	daysText, ok := prompt(scanner, out, "Enter number of days: ")
	if !ok {
		return
	}
	days, err := strconv.Atoi(daysText)
	if err != nil || days < 1 {
		fmt.Fprintln(out, "Invalid number of days.")
		return
	}

	_, id := d.CreateTrip(state.NewTrip{Title: title, StartDate: start, Days: days})
	fmt.Fprintf(out, "✅ Created %s (%s)\n", title, id)
}

func selectTrip(scanner *bufio.Scanner, out io.Writer, d *state.Dispatcher) {
	trips := d.Store().Trips()
	if len(trips) == 0 {
		fmt.Fprintln(out, "\nNo trips found.")
		return
	}
	text, ok := prompt(scanner, out, fmt.Sprintf("Enter trip number (1-%d): ", len(trips)))
	if !ok {
		return
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(trips) {
		fmt.Fprintln(out, "Invalid choice.")
		return
	}
	d.SetActiveTrip(trips[n-1].ID)
	fmt.Fprintf(out, "Active trip: %s\n", trips[n-1].Title)
}

func viewItinerary(out io.Writer, store *state.Store) {
	trip, ok := store.ActiveTrip()
	if !ok {
		fmt.Fprintln(out, "\nNo active trip.")
		return
	}

	fmt.Fprintf(out, "\n🗺️  %s\n", trip.Title)
	for _, day := range trip.DailyItinerary {
		fmt.Fprintf(out, "Day %d (%s)\n", day.Day, day.Date)
		for _, a := range day.Activities {
			visited := ""
			if a.Visited {
				visited = " ✓"
			}
			fmt.Fprintf(out, "  %s  %s%s\n", a.Time, a.Location, visited)
		}
	}
}

func addActivity(scanner *bufio.Scanner, out io.Writer, d *state.Dispatcher) {
	trip, ok := d.Store().ActiveTrip()
	if !ok {
		fmt.Fprintln(out, "\nNo active trip.")
		return
	}
	dayText, ok := prompt(scanner, out, fmt.Sprintf("Enter day (1-%d): ", len(trip.DailyItinerary)))
	if !ok {
		return
	}
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > len(trip.DailyItinerary) {
		fmt.Fprintln(out, "Invalid day.")
		return
	}
	at, ok := prompt(scanner, out, "Enter time (HH:MM): ")
	if !ok {
		return
	}
	location, ok := prompt(scanner, out, "Enter location: ")
	if !ok {
		return
	}

	_, id := d.AddActivity(trip.ID, day-1, models.Activity{Time: at, Location: location})
	if id == "" {
		fmt.Fprintln(out, "❌ That day no longer exists.")
		return
	}
	fmt.Fprintln(out, "✅ Activity added")
}
