// Package settings models the per-profile preferences blob.
package settings

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

type Settings struct {
	// Profile
	DisplayName           string `json:"displayName"`
	Bio                   string `json:"bio"`
	RelationshipStartDate string `json:"relationshipStartDate"`
	PartnerName           string `json:"partnerName"`

	// Notifications
	MoodNotifications bool `json:"moodNotifications"`
	DateReminders     bool `json:"dateReminders"`
	GiftSuggestions   bool `json:"giftSuggestions"`
	PartnerActivity   bool `json:"partnerActivity"`
	DailyReminders    bool `json:"dailyReminders"`
	SurpriseAlerts    bool `json:"surpriseAlerts"`
	ConsolationTips   bool `json:"consolationTips"`
	WeeklyPlanning    bool `json:"weeklyPlanning"`

	// Gifts and surprises
	AutoGiftPlanning       bool     `json:"autoGiftPlanning"`
	GiftBudget             []int    `json:"giftBudget"`
	SurpriseFrequency      string   `json:"surpriseFrequency"`
	FavoriteGiftCategories []string `json:"favoriteGiftCategories"`
	GiftDeliveryReminders  bool     `json:"giftDeliveryReminders"`
	LocalGiftSuggestions   bool     `json:"localGiftSuggestions"`

	// Mood and AI
	AIMoodDetection       bool   `json:"aiMoodDetection"`
	MoodSharingLevel      string `json:"moodSharingLevel"`
	AISuggestionFrequency string `json:"aiSuggestionFrequency"`
	EmotionalAnalysis     bool   `json:"emotionalAnalysis"`
	MoodHistoryTracking   bool   `json:"moodHistoryTracking"`
	AIPersonalization     bool   `json:"aiPersonalization"`
	ConsolationStrategies bool   `json:"consolationStrategies"`

	// Long distance
	IsLongDistance          bool `json:"isLongDistance"`
	TimezoneSync            bool `json:"timezoneSync"`
	VirtualDatePlanning     bool `json:"virtualDatePlanning"`
	GiftDeliveryIntegration bool `json:"giftDeliveryIntegration"`
	QualityTimeReminders    bool `json:"qualityTimeReminders"`
	CommunicationScheduling bool `json:"communicationScheduling"`

	// Games and activities
	CoupleGames         bool `json:"coupleGames"`
	DailyChallenges     bool `json:"dailyChallenges"`
	RelationshipQuizzes bool `json:"relationshipQuizzes"`
	MoodBasedGames      bool `json:"moodBasedGames"`
	CompetitiveMode     bool `json:"competitiveMode"`
	GameNotifications   bool `json:"gameNotifications"`

	// Special dates
	BirthdayReminders    bool `json:"birthdayReminders"`
	AnniversaryTracking  bool `json:"anniversaryTracking"`
	CustomEventReminders bool `json:"customEventReminders"`
	WeekendPlanning      bool `json:"weekendPlanning"`
	MonthlyGoals         bool `json:"monthlyGoals"`
	CountdownEvents      bool `json:"countdownEvents"`

	// Privacy
	ShareLocation   bool   `json:"shareLocation"`
	PublicProfile   bool   `json:"publicProfile"`
	DataSync        bool   `json:"dataSync"`
	MoodDataSharing string `json:"moodDataSharing"`
	AIDataUsage     string `json:"aiDataUsage"`

	// App preferences
	DarkMode                bool `json:"darkMode"`
	Animations              bool `json:"animations"`
	PushNotifications       bool `json:"pushNotifications"`
	SmartNotificationTiming bool `json:"smartNotificationTiming"`
	VoiceAssistant          bool `json:"voiceAssistant"`
	HapticFeedback          bool `json:"hapticFeedback"`
}

// Defaults returns the settings a new profile starts with.
func Defaults() Settings {
	return Settings{
		MoodNotifications: true,
		DateReminders:     true,
		GiftSuggestions:   true,
		PartnerActivity:   true,
		SurpriseAlerts:    true,
		ConsolationTips:   true,
		WeeklyPlanning:    true,

		AutoGiftPlanning:       true,
		GiftBudget:             []int{100},
		SurpriseFrequency:      "weekly",
		FavoriteGiftCategories: []string{"flowers", "chocolates", "experiences"},
		GiftDeliveryReminders:  true,
		LocalGiftSuggestions:   true,

		AIMoodDetection:       true,
		MoodSharingLevel:      "hints",
		AISuggestionFrequency: "smart",
		EmotionalAnalysis:     true,
		MoodHistoryTracking:   true,
		AIPersonalization:     true,
		ConsolationStrategies: true,

		TimezoneSync:         true,
		QualityTimeReminders: true,

		CoupleGames:         true,
		DailyChallenges:     true,
		RelationshipQuizzes: true,
		MoodBasedGames:      true,
		GameNotifications:   true,

		BirthdayReminders:    true,
		AnniversaryTracking:  true,
		CustomEventReminders: true,
		WeekendPlanning:      true,
		CountdownEvents:      true,

		DataSync:        true,
		MoodDataSharing: "partner-only",
		AIDataUsage:     "improve-suggestions",

		Animations:              true,
		PushNotifications:       true,
		SmartNotificationTiming: true,
		HapticFeedback:          true,
	}
}

// Decode overlays stored JSON on the defaults. Keys present in raw win,
// unknown keys are ignored. An empty blob yields the defaults.
func Decode(raw datatypes.JSON) (Settings, error) {
	s := Defaults()
	if len(raw) == 0 || string(raw) == "null" {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Defaults(), fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func Encode(s Settings) (datatypes.JSON, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return datatypes.JSON(b), nil
}
