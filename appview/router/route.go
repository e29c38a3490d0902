package router

// Route names.
const (
	Home         = "Home"
	Login        = "Login"
	Register     = "Register"
	RecipeDetail = "RecipeDetail"
	Profile      = "Profile"
	CreateRecipe = "CreateRecipe"
)

type Meta struct {
	RequiresAuth bool
}

type Route struct {
	Name string
	// Paths are chi patterns, most specific first. Extra entries cover
	// optional params.
	Paths []string
	// Component names the view; it is loaded the first time the route
	// renders.
	Component string
	Meta      Meta
}

func (r Route) Path() string {
	return r.Paths[0]
}

// Routes is the page table. Only recipe creation needs a signed-in user.
func Routes() []Route {
	return []Route{
		{
			Name:      Home,
			Paths:     []string{"/"},
			Component: "home.html",
		},
		{
			Name:      Login,
			Paths:     []string{"/login"},
			Component: "login.html",
		},
		{
			Name:      Register,
			Paths:     []string{"/register"},
			Component: "register.html",
		},
		{
			Name:      RecipeDetail,
			Paths:     []string{"/recipe/{id}"},
			Component: "recipe.html",
		},
		{
			Name:      Profile,
			Paths:     []string{"/profile/{id}", "/profile"},
			Component: "profile.html",
		},
		{
			Name:      CreateRecipe,
			Paths:     []string{"/create"},
			Component: "create.html",
			Meta:      Meta{RequiresAuth: true},
		},
	}
}
