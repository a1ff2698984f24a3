package catalog

func DefaultServices() []Service {
	return []Service{
		{ID: "1", Name: "Haircut", Description: "Cut tailored to your style and preferences", Duration: 45, Price: 25000, Category: "Cuts", Icon: "Scissors"},
		{ID: "2", Name: "Colouring", Description: "Full colour with high quality products", Duration: 120, Price: 45000, Category: "Colour", Icon: "Palette"},
		{ID: "3", Name: "Highlights", Description: "Professional highlights to brighten your hair", Duration: 150, Price: 55000, Category: "Colour", Icon: "Brush"},
		{ID: "4", Name: "Styling", Description: "Elegant styling for special events", Duration: 60, Price: 30000, Category: "Styling", Icon: "Crown"},
		{ID: "5", Name: "Hair Treatment", Description: "Nourishing and repairing treatment", Duration: 90, Price: 35000, Category: "Treatments", Icon: "Droplets"},
		{ID: "6", Name: "Straightening", Description: "Long lasting professional straightening", Duration: 180, Price: 80000, Category: "Treatments", Icon: "Zap"},
	}
}

func DefaultStylists() []Stylist {
	return []Stylist{
		{
			ID:          "1",
			Name:        "María González",
			Email:       "maria@salon.com",
			Phone:       "+56912345678",
			Specialties: []string{"Cuts", "Colour"},
			Rating:      4.9,
			Experience:  "8 years of experience",
			Schedule: weekSchedule(
				day("09:00", "18:00"), day("09:00", "18:00"), day("09:00", "18:00"), day("09:00", "18:00"),
				day("09:00", "19:00"), day("10:00", "17:00"), off("10:00", "15:00"),
			),
		},
		{
			ID:          "2",
			Name:        "Carlos Rodríguez",
			Email:       "carlos@salon.com",
			Phone:       "+56987654321",
			Specialties: []string{"Cuts", "Styling"},
			Rating:      4.8,
			Experience:  "6 years of experience",
			Schedule: weekSchedule(
				day("10:00", "19:00"), day("10:00", "19:00"), day("10:00", "19:00"), day("10:00", "19:00"),
				day("10:00", "20:00"), day("09:00", "18:00"), off("10:00", "15:00"),
			),
		},
		{
			ID:          "3",
			Name:        "Ana Martínez",
			Email:       "ana@salon.com",
			Phone:       "+56911223344",
			Specialties: []string{"Colour", "Treatments"},
			Rating:      4.9,
			Experience:  "10 years of experience",
			Schedule: weekSchedule(
				day("09:00", "17:00"), day("09:00", "17:00"), day("09:00", "17:00"), day("09:00", "17:00"),
				day("09:00", "18:00"), day("10:00", "16:00"), off("10:00", "15:00"),
			),
		},
	}
}

func day(start, end string) DaySchedule { return DaySchedule{Start: start, End: end, IsWorking: true} }
func off(start, end string) DaySchedule { return DaySchedule{Start: start, End: end} }

// weekSchedule takes days in monday..sunday order.
func weekSchedule(days ...DaySchedule) WorkingHours {
	w := make(WorkingHours, len(days))
	for i, d := range days {
		w[weekdays[i]] = d
	}
	return w
}
