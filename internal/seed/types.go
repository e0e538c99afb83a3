package seed

// Config is a seed definition file.
type Config struct {
	Admin    *AdminDef    `yaml:"admin"`
	Packages []PackageDef `yaml:"packages"`
	Articles []ArticleDef `yaml:"articles"`
}

// AdminDef creates an administrator unless the email is already taken.
// An empty password is read from PANEL_ADMIN_PASSWORD.
type AdminDef struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// PackageDef limits use -1 for unlimited.
type PackageDef struct {
	Name          string `yaml:"name"`
	DiskSpace     int    `yaml:"disk_space"`
	Bandwidth     int    `yaml:"bandwidth"`
	EmailAccounts int    `yaml:"email_accounts"`
	Databases     int    `yaml:"databases"`
	Domains       int    `yaml:"domains"`
}

type ArticleDef struct {
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Content  string   `yaml:"content"`
}
