// Package gmail_tools provides MCP (Model Context Protocol) tools over the
// simulated Gmail store.
//
// Every tool maps to one store operation. Read tools are always registered;
// write tools (send, insert, import, modify, trash, delete, draft and label
// mutations) are only registered when the server runs with writes enabled.
//
// Message tools:
//   - gmail_get_profile, gmail_get_message, gmail_list_messages
//   - gmail_send_message, gmail_insert_message, gmail_import_message
//   - gmail_modify_message, gmail_trash_messages, gmail_untrash_messages
//   - gmail_delete_message, gmail_batch_modify_messages, gmail_batch_delete_messages
//
// Draft tools:
//   - gmail_get_draft, gmail_list_drafts
//   - gmail_create_draft, gmail_update_draft, gmail_delete_draft, gmail_send_draft
//
// Label tools:
//   - gmail_get_label, gmail_list_labels, gmail_verify_label_counts
//   - gmail_create_label, gmail_update_label, gmail_delete_label
//
// Thread tools:
//   - gmail_get_thread, gmail_list_threads
//   - gmail_modify_thread, gmail_trash_thread, gmail_untrash_thread, gmail_delete_thread
//
// Attachment tools:
//   - gmail_get_attachment, gmail_attachment_stats
//
// Tools that accept multiple ids (gmail_trash_messages,
// gmail_batch_delete_messages, ...) take either a single id string or an
// array of ids and report per-id results.
package gmail_tools
