package service

import (
	"context"
	"errors"

	"maimai-tracker/internal/archive"
	"maimai-tracker/internal/constants"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var ErrCellOutOfRange = errors.New("board cell index out of range")

// BoardPreset is a named starting layout for a preference board.
type BoardPreset struct {
	Name   string             `json:"name"`
	Config domain.BoardConfig `json:"config"`
	Labels []string           `json:"labels"`
}

const DefaultPresetKey = "default"

var boardPresets = map[string]BoardPreset{
	"default": {
		Name:   "标准 12 格",
		Config: domain.BoardConfig{Theme: "default", Title: "Maimai 歌曲喜好表"},
		Labels: []string{
			"入坑曲", "最喜欢", "最近练习",
			"最强", "最弱", "初鸟 (AP)",
			"初FC", "想要AP", "想要FC",
			"听不腻", "推荐曲", "随便填",
		},
	},
	"simple9": {
		Name:   "九宫格",
		Config: domain.BoardConfig{Theme: "default", Title: "Maimai 九宫格"},
		Labels: []string{
			"入坑曲", "最喜欢", "最近练习",
			"最强", "最弱", "初鸟 (AP)",
			"想要AP", "想要FC", "推荐曲",
		},
	},
	"top3": {
		Name:   "Top 3",
		Config: domain.BoardConfig{Theme: "default", Title: "我的 Top 3"},
		Labels: []string{"No.1", "No.2", "No.3"},
	},
}

// PreferenceService manages the song-preference-board archives.
type PreferenceService struct {
	store  *archive.Store[domain.PreferenceBoard]
	logger zerolog.Logger
}

func NewPreferenceService(repo *repository.LocalStateRepository, logger zerolog.Logger) (*PreferenceService, error) {
	cfg := archive.Config[domain.PreferenceBoard]{
		CollectionKey:  constants.KeyPreferenceArchives,
		ActiveKey:      constants.KeyPreferenceActive,
		DefaultName:    "默认存档",
		DefaultPayload: func() domain.PreferenceBoard { return boardFromPreset(DefaultPresetKey) },
		LoadLegacy: func(ctx context.Context) (domain.PreferenceBoard, bool) {
			// the pre-archive layout kept cells and config under two keys;
			// cells are the marker, config falls back to the default preset
			var cells []domain.BoardCell
			ok, err := repo.GetJSON(ctx, constants.KeyLegacyBoardCells, &cells)
			if err != nil || !ok {
				return domain.PreferenceBoard{}, false
			}

			board := domain.PreferenceBoard{
				Config: boardPresets[DefaultPresetKey].Config,
				Cells:  cells,
			}
			if found, err := repo.GetJSON(ctx, constants.KeyLegacyBoardConfig, &board.Config); err != nil || !found {
				board.Config = boardPresets[DefaultPresetKey].Config
			}
			return board, true
		},
	}

	store, err := archive.NewStore(context.Background(), cfg, repo, logger)
	if err != nil {
		return nil, err
	}
	return &PreferenceService{store: store, logger: logger}, nil
}

// Presets returns the available board presets.
func (s *PreferenceService) Presets() map[string]BoardPreset {
	out := make(map[string]BoardPreset, len(boardPresets))
	for k, v := range boardPresets {
		out[k] = v
	}
	return out
}

func boardFromPreset(key string) domain.PreferenceBoard {
	preset, ok := boardPresets[key]
	if !ok {
		preset = boardPresets[DefaultPresetKey]
	}
	cells := make([]domain.BoardCell, len(preset.Labels))
	for i, label := range preset.Labels {
		cells[i] = domain.BoardCell{Label: label}
	}
	return domain.PreferenceBoard{Config: preset.Config, Cells: cells}
}

func (s *PreferenceService) Archives() []archive.Archive[domain.PreferenceBoard] {
	return s.store.Archives()
}

func (s *PreferenceService) ActiveID() string {
	return s.store.ActiveID()
}

func (s *PreferenceService) Active() (archive.Archive[domain.PreferenceBoard], bool) {
	return s.store.Active()
}

// CreateArchive starts a new board from the given preset and makes it active.
func (s *PreferenceService) CreateArchive(ctx context.Context, name, presetKey string) (string, error) {
	return s.store.Create(ctx, name, boardFromPreset(presetKey))
}

func (s *PreferenceService) SwitchArchive(ctx context.Context, id string) error {
	return s.store.SwitchActive(ctx, id)
}

func (s *PreferenceService) RenameArchive(ctx context.Context, id, name string) error {
	return s.store.Rename(ctx, id, name)
}

func (s *PreferenceService) DeleteArchive(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// UpdateConfig merges non-empty fields into the active board's config.
func (s *PreferenceService) UpdateConfig(ctx context.Context, cfg domain.BoardConfig) error {
	return s.store.MutateActive(ctx, func(board *domain.PreferenceBoard) {
		if cfg.Theme != "" {
			board.Config.Theme = cfg.Theme
		}
		if cfg.Title != "" {
			board.Config.Title = cfg.Title
		}
	})
}

// UpdateCell places a song (or nil, clearing the slot) into the active
// board's cell.
func (s *PreferenceService) UpdateCell(ctx context.Context, index int, song *domain.Song) error {
	var rangeErr error
	err := s.store.MutateActive(ctx, func(board *domain.PreferenceBoard) {
		if index < 0 || index >= len(board.Cells) {
			rangeErr = ErrCellOutOfRange
			return
		}
		board.Cells[index].Song = song
	})
	if err != nil {
		return err
	}
	return rangeErr
}

// UpdateCellLabel renames a cell of the active board.
func (s *PreferenceService) UpdateCellLabel(ctx context.Context, index int, label string) error {
	var rangeErr error
	err := s.store.MutateActive(ctx, func(board *domain.PreferenceBoard) {
		if index < 0 || index >= len(board.Cells) {
			rangeErr = ErrCellOutOfRange
			return
		}
		board.Cells[index].Label = label
	})
	if err != nil {
		return err
	}
	return rangeErr
}
