package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// UserData holds user-specific state that is stored locally
type UserData struct {
	LastTextFile  string    `json:"last_text_file"`
	LastExcelFile string    `json:"last_excel_file"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	path string
}

// LoadUserData loads user data from ~/.upload-form/user.data
func LoadUserData() (*UserData, error) {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return createDefaultUserData(""), nil
	}
	return LoadUserDataFrom(userDataPath), nil
}

// LoadUserDataFrom loads user data from path. A missing or corrupt file
// yields empty defaults bound to the same path.
func LoadUserDataFrom(path string) *UserData {
	data, err := os.ReadFile(path)
	if err != nil {
		return createDefaultUserData(path)
	}

	var userData UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return createDefaultUserData(path)
	}

	userData.path = path
	return &userData
}

// SaveUserData writes user data back to the file it was loaded from
func (ud *UserData) SaveUserData() error {
	if ud.path == "" {
		p, err := getUserDataPath()
		if err != nil {
			return err
		}
		ud.path = p
	}

	ud.UpdatedAt = time.Now()
	if ud.CreatedAt.IsZero() {
		ud.CreatedAt = ud.UpdatedAt
	}

	data, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(ud.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(ud.path, data, 0644)
}

// SetLastTextFile remembers the last text file that was uploaded
func (ud *UserData) SetLastTextFile(path string) error {
	ud.LastTextFile = path
	return ud.SaveUserData()
}

// SetLastExcelFile remembers the last spreadsheet that was uploaded
func (ud *UserData) SetLastExcelFile(path string) error {
	ud.LastExcelFile = path
	return ud.SaveUserData()
}

func createDefaultUserData(path string) *UserData {
	now := time.Now()
	return &UserData{
		CreatedAt: now,
		UpdatedAt: now,
		path:      path,
	}
}

// getUserDataPath returns the path to the user.data file
func getUserDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Same directory as the config file
	return filepath.Join(homeDir, ".upload-form", "user.data"), nil
}
