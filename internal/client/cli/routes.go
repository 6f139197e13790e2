package cli

import "github.com/stayonbrand/gatekeeper/internal/client/guards"

// routeTable mirrors the web application's route records: public marketing
// pages, guest-only auth pages, and authenticated dashboard pages.
var routeTable = []guards.Route{
	{Name: "Home", Path: "/"},
	{Name: "Pricing", Path: "/pricing"},
	{Name: "Login", Path: "/login", RequiresGuest: true},
	{Name: "Signup", Path: "/signup", RequiresGuest: true},
	{Name: "ForgotPassword", Path: "/forgot-password", RequiresGuest: true},
	{Name: "Dashboard", Path: "/dashboard", RequiresAuth: true},
	{Name: "Billing", Path: "/dashboard/billing", RequiresAuth: true},
}

func findRoute(name string) (guards.Route, bool) {
	for _, r := range routeTable {
		if r.Name == name {
			return r, true
		}
	}
	return guards.Route{}, false
}
